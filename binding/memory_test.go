// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package binding_test

import (
	"testing"

	"github.com/edwinzMSFT/go-varstore/binding"
	"github.com/edwinzMSFT/go-varstore/efi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNamespace1 = uuid.MustParse("8be4df61-93ca-11d2-aa0d-00e098032b8c")
var testNamespace2 = uuid.MustParse("d719b2cb-3d3a-4596-a3bc-dad00e67656f")

func TestMemoryServicesEnumeration(t *testing.T) {
	services := binding.NewMemoryServices(0, 0)
	services.Set("BootOrder", testNamespace1, efi.AttributeNonVolatile, []byte{1, 0})
	services.Set("SecureBoot", testNamespace1, efi.AttributeBootserviceAccess, []byte{1})
	services.Set("SecureBoot", testNamespace2, efi.AttributeRuntimeAccess, []byte{0})
	expected := []string{"BootOrder", "SecureBoot", "SecureBoot"}
	iter := efi.NewVariableNameIterator(services)
	actual := make([]string, 0)
	for {
		identifier, err := iter.Next()
		require.NoError(t, err)
		if identifier == nil {
			break
		}
		actual = append(actual, identifier.NameString())
	}
	require.Equal(t, expected, actual)
}

func TestMemoryServicesEnumerationFromVariable(t *testing.T) {
	services := binding.NewMemoryServices(0, 0)
	services.Set("BootOrder", testNamespace1, efi.AttributeNonVolatile, []byte{1, 0})
	services.Set("SecureBoot", testNamespace2, efi.AttributeRuntimeAccess, []byte{0})
	anchor := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	iter := efi.NewVariableNameIteratorFrom(anchor.Name(), anchor.Namespace(), services)
	identifier, err := iter.Next()
	require.NoError(t, err)
	require.NotNil(t, identifier)
	require.Equal(t, "SecureBoot", identifier.NameString())
	require.Equal(t, testNamespace2, identifier.Namespace())
	identifier, err = iter.Next()
	require.NoError(t, err)
	require.Nil(t, identifier)
}

func TestMemoryServicesUnknownPrevious(t *testing.T) {
	services := binding.NewMemoryServices(0, 0)
	services.Set("BootOrder", testNamespace1, efi.AttributeNonVolatile, []byte{1, 0})
	unknown := efi.NewVariableIdentifierString("BootNext", testNamespace1)
	var nextNamespace uuid.UUID
	nextName := make([]uint16, 64)
	_, status := services.GetNextVariableName(unknown.Name(), unknown.Namespace(), nextName, &nextNamespace)
	require.Equal(t, efi.StatusInvalidParameter, status)
}

func TestMemoryServicesGetVariable(t *testing.T) {
	services := binding.NewMemoryServices(0, 0)
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	attributes := efi.AttributeNonVolatile | efi.AttributeRuntimeAccess
	services.Set("BootOrder", testNamespace1, attributes, data)
	name := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	// probe with an empty buffer
	probe := services.GetVariable(name.Name(), name.Namespace(), nil)
	require.NoError(t, probe.Err())
	require.True(t, probe.BufferTooSmall())
	require.Equal(t, attributes, probe.Attributes())
	// retry with the reported size
	buffer := make([]byte, probe.DataSize())
	fetch := services.GetVariable(name.Name(), name.Namespace(), buffer)
	require.NoError(t, fetch.Err())
	require.False(t, fetch.BufferTooSmall())
	require.Equal(t, probe.DataSize(), fetch.DataSize())
	require.Equal(t, data, buffer[:fetch.DataSize()])
}

func TestMemoryServicesGetVariableNotFound(t *testing.T) {
	services := binding.NewMemoryServices(0, 0)
	name := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	fetch := services.GetVariable(name.Name(), name.Namespace(), nil)
	require.ErrorIs(t, fetch.Err(), efi.StatusNotFound)
}

func TestMemoryServicesSetReplaceAndDelete(t *testing.T) {
	services := binding.NewMemoryServices(0, 0)
	services.Set("BootOrder", testNamespace1, efi.AttributeNonVolatile, []byte{1})
	services.Set("BootNext", testNamespace1, efi.AttributeNonVolatile, []byte{2})
	services.Set("BootOrder", testNamespace1, efi.AttributeNonVolatile, []byte{3})
	name := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	buffer := make([]byte, 1)
	fetch := services.GetVariable(name.Name(), name.Namespace(), buffer)
	require.NoError(t, fetch.Err())
	require.Equal(t, []byte{3}, buffer)
	// replacement keeps enumeration position
	iter := efi.NewVariableNameIterator(services)
	identifier, err := iter.Next()
	require.NoError(t, err)
	require.Equal(t, "BootOrder", identifier.NameString())
	require.True(t, services.Delete("BootOrder", testNamespace1))
	require.False(t, services.Delete("BootOrder", testNamespace1))
}

func TestMemoryServicesQueryVariableInfo(t *testing.T) {
	services := binding.NewMemoryServices(1024, 256)
	services.Set("BootOrder", testNamespace1, efi.AttributeNonVolatile, make([]byte, 100))
	info, status := services.QueryVariableInfo(efi.AttributeNonVolatile)
	require.Equal(t, efi.StatusSuccess, status)
	require.NoError(t, info.Validate())
	require.Equal(t, uint64(1024), info.MaximumVariableStorageSize)
	require.Less(t, info.RemainingVariableStorageSize, info.MaximumVariableStorageSize)
	require.Equal(t, uint64(256), info.MaximumVariableSize)
}
