// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package binding_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/edwinzMSFT/go-varstore/binding"
	"github.com/edwinzMSFT/go-varstore/efi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func writeVariableFile(t *testing.T, path string, name string, namespace uuid.UUID, attributes efi.Attributes, data []byte) {
	content := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(content, uint32(attributes))
	copy(content[4:], data)
	err := os.WriteFile(filepath.Join(path, name+"-"+namespace.String()), content, 0600)
	require.NoError(t, err)
}

func TestNewEFIVarFSBadPath(t *testing.T) {
	_, err := binding.NewEFIVarFS(filepath.Join(os.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestEFIVarFSEnumeration(t *testing.T) {
	path, err := os.MkdirTemp("", "TestEFIVarFSEnumeration*")
	require.NoError(t, err)
	defer os.RemoveAll(path)
	writeVariableFile(t, path, "BootOrder", testNamespace1, efi.AttributeNonVolatile, []byte{1, 0})
	writeVariableFile(t, path, "SecureBoot", testNamespace2, efi.AttributeRuntimeAccess, []byte{1})
	// entries not matching the Name-GUID layout are skipped
	err = os.WriteFile(filepath.Join(path, "junk"), []byte{0}, 0600)
	require.NoError(t, err)
	services, err := binding.NewEFIVarFS(path)
	require.NoError(t, err)
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
	require.Equal(t, []string{"BootOrder", "SecureBoot"}, actual)
}

func TestEFIVarFSGetVariable(t *testing.T) {
	path, err := os.MkdirTemp("", "TestEFIVarFSGetVariable*")
	require.NoError(t, err)
	defer os.RemoveAll(path)
	data := []byte{0x01, 0x00, 0x02, 0x00}
	attributes := efi.AttributeNonVolatile | efi.AttributeBootserviceAccess
	writeVariableFile(t, path, "BootOrder", testNamespace1, attributes, data)
	services, err := binding.NewEFIVarFS(path)
	require.NoError(t, err)
	name := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	probe := services.GetVariable(name.Name(), name.Namespace(), nil)
	require.NoError(t, probe.Err())
	require.True(t, probe.BufferTooSmall())
	require.Equal(t, len(data), probe.DataSize())
	require.Equal(t, attributes, probe.Attributes())
	buffer := make([]byte, probe.DataSize())
	fetch := services.GetVariable(name.Name(), name.Namespace(), buffer)
	require.NoError(t, fetch.Err())
	require.Equal(t, probe.DataSize(), fetch.DataSize())
	require.Equal(t, data, buffer)
}

func TestEFIVarFSGetVariableNotFound(t *testing.T) {
	path, err := os.MkdirTemp("", "TestEFIVarFSGetVariableNotFound*")
	require.NoError(t, err)
	defer os.RemoveAll(path)
	services, err := binding.NewEFIVarFS(path)
	require.NoError(t, err)
	name := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	fetch := services.GetVariable(name.Name(), name.Namespace(), nil)
	require.ErrorIs(t, fetch.Err(), efi.StatusNotFound)
}

func TestEFIVarFSGetVariableTruncated(t *testing.T) {
	path, err := os.MkdirTemp("", "TestEFIVarFSGetVariableTruncated*")
	require.NoError(t, err)
	defer os.RemoveAll(path)
	err = os.WriteFile(filepath.Join(path, "BootOrder-"+testNamespace1.String()), []byte{0x07}, 0600)
	require.NoError(t, err)
	services, err := binding.NewEFIVarFS(path)
	require.NoError(t, err)
	name := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	fetch := services.GetVariable(name.Name(), name.Namespace(), nil)
	require.ErrorIs(t, fetch.Err(), efi.StatusDeviceError)
}

func TestEFIVarFSQueryVariableInfo(t *testing.T) {
	path, err := os.MkdirTemp("", "TestEFIVarFSQueryVariableInfo*")
	require.NoError(t, err)
	defer os.RemoveAll(path)
	services, err := binding.NewEFIVarFS(path)
	require.NoError(t, err)
	info, status := services.QueryVariableInfo(efi.AttributeNonVolatile)
	if status == efi.StatusUnsupported {
		t.Skip("variable info not supported on this platform")
	}
	require.Equal(t, efi.StatusSuccess, status)
	require.NoError(t, info.Validate())
}
