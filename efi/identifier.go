// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package efi

import (
	"unicode/utf16"

	"github.com/google/uuid"
)

// A VariableIdentifier uniquely identifies a variable within the store.
//
// The name is kept in the store's native encoding, an ordered sequence
// of 16-bit code units; it is never reinterpreted as UTF-8. The
// namespace is a 128-bit GUID partitioning the name space: two
// variables may share a name as long as their namespaces differ.
//
// A single zero code unit in isolation is reserved as the enumeration
// start sentinel and never names a stored variable.
type VariableIdentifier struct {
	name      []uint16
	namespace uuid.UUID
}

// NewVariableIdentifier creates a [VariableIdentifier] from native code
// units. The submitted name is copied.
func NewVariableIdentifier(name []uint16, namespace uuid.UUID) VariableIdentifier {
	identifier := VariableIdentifier{
		name:      make([]uint16, len(name)),
		namespace: namespace,
	}
	copy(identifier.name, name)
	return identifier
}

// NewVariableIdentifierString creates a [VariableIdentifier] from a Go
// string, encoding it to the store's native 16-bit representation.
func NewVariableIdentifierString(name string, namespace uuid.UUID) VariableIdentifier {
	return VariableIdentifier{
		name:      utf16.Encode([]rune(name)),
		namespace: namespace,
	}
}

func newStartIdentifier(nameCapacity int) VariableIdentifier {
	// The zero-unit sentinel requests the first variable; the namespace
	// is ignored for the sentinel and simply left zeroed. The slack
	// capacity lets the buffer serve as enumeration scratch space later.
	return VariableIdentifier{name: make([]uint16, 1, nameCapacity)}
}

// Name gets the identifier's name in the store's native encoding.
//
// The returned slice is backed by the identifier; use [VariableIdentifier.Clone]
// to retain it beyond the identifier's lifetime.
func (identifier *VariableIdentifier) Name() []uint16 {
	return identifier.name
}

// NameString gets the identifier's name decoded to a Go string.
//
// The decoded form is meant for display and path construction only;
// identity is defined over the native encoding.
func (identifier *VariableIdentifier) NameString() string {
	return string(utf16.Decode(identifier.name))
}

// Namespace gets the identifier's namespace GUID.
func (identifier *VariableIdentifier) Namespace() uuid.UUID {
	return identifier.namespace
}

// Equal reports whether both identifiers denote the same variable,
// comparing names code-unit-wise and namespaces byte-wise. No ordering
// relation is defined; enumeration order is owned by the store.
func (identifier *VariableIdentifier) Equal(other *VariableIdentifier) bool {
	if len(identifier.name) != len(other.name) {
		return false
	}
	for index, unit := range identifier.name {
		if other.name[index] != unit {
			return false
		}
	}
	return identifier.namespace == other.namespace
}

// IsStart reports whether this identifier is the reserved enumeration
// start sentinel.
func (identifier *VariableIdentifier) IsStart() bool {
	return len(identifier.name) == 0 || (len(identifier.name) == 1 && identifier.name[0] == 0)
}

// Clone creates an independent copy of this identifier.
func (identifier *VariableIdentifier) Clone() VariableIdentifier {
	return NewVariableIdentifier(identifier.name, identifier.namespace)
}

// String formats the identifier in the conventional "Name-GUID" form.
func (identifier *VariableIdentifier) String() string {
	return identifier.NameString() + "-" + identifier.namespace.String()
}
