// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package efi_test

import (
	"testing"

	"github.com/edwinzMSFT/go-varstore/efi"
	"github.com/stretchr/testify/require"
)

func TestVariableIdentifierEqual(t *testing.T) {
	identifier1 := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	identifier2 := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	identifier3 := efi.NewVariableIdentifierString("BootOrder", testNamespace2)
	identifier4 := efi.NewVariableIdentifierString("BootNext", testNamespace1)
	require.True(t, identifier1.Equal(&identifier2))
	require.False(t, identifier1.Equal(&identifier3))
	require.False(t, identifier1.Equal(&identifier4))
}

func TestVariableIdentifierClone(t *testing.T) {
	name := []uint16{'B', 'o', 'o', 't'}
	identifier := efi.NewVariableIdentifier(name, testNamespace1)
	clone := identifier.Clone()
	name[0] = 'X'
	identifier.Name()[1] = 'X'
	require.True(t, clone.NameString() == "Boot")
	require.Equal(t, testNamespace1, clone.Namespace())
}

func TestVariableIdentifierIsStart(t *testing.T) {
	start := efi.NewVariableIdentifier([]uint16{0}, testNamespace1)
	empty := efi.NewVariableIdentifier(nil, testNamespace1)
	named := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	require.True(t, start.IsStart())
	require.True(t, empty.IsStart())
	require.False(t, named.IsStart())
}

func TestVariableIdentifierString(t *testing.T) {
	identifier := efi.NewVariableIdentifierString("BootOrder", testNamespace1)
	require.Equal(t, "BootOrder-8be4df61-93ca-11d2-aa0d-00e098032b8c", identifier.String())
	require.Equal(t, "BootOrder", identifier.NameString())
}
