// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package varstore

import (
	"github.com/edwinzMSFT/go-varstore/efi"
	"github.com/google/uuid"
)

// Variables represents a traversable collection of store variables.
type Variables struct {
	store *Store
	iter  *efi.VariableNameIterator
}

// Next gets the next variable in the collection.
//
// nil is returned if the collection is exhausted. Deleting a variable
// between its enumeration and its traversal causes an [ErrNotExist].
func (variables *Variables) Next() (*Variable, error) {
	identifier, err := variables.iter.Next()
	if err != nil {
		return nil, err
	}
	if identifier == nil {
		return nil, nil
	}
	return variables.store.ReadIdentifier(identifier)
}

// Find looks up the next variable in the collection matching the submitted match function.
//
// nil is returned if none of the remaining variables matches.
func (variables *Variables) Find(match func(variable *Variable) bool) (*Variable, error) {
	variable, err := variables.Next()
	for {
		if err != nil {
			return nil, err
		}
		if variable == nil || match(variable) {
			break
		}
		variable, err = variables.Next()
	}
	return variable, nil
}

// A Variable represents a single store variable, its identifier,
// attributes and data.
type Variable struct {
	identifier efi.VariableIdentifier
	attributes efi.Attributes
	data       []byte
}

// Name gets the variable's name in its decoded form.
func (variable *Variable) Name() string {
	return variable.identifier.NameString()
}

// Identifier gets the variable's identifier.
func (variable *Variable) Identifier() *efi.VariableIdentifier {
	return &variable.identifier
}

// Namespace gets the variable's namespace GUID.
func (variable *Variable) Namespace() uuid.UUID {
	return variable.identifier.Namespace()
}

// Attributes gets the variable's attribute bits.
func (variable *Variable) Attributes() efi.Attributes {
	return variable.attributes
}

// Data gets the variable's data.
//
// The returned slice is backed by the variable (which may be shared via
// the store's read cache) and must be treated as read-only.
func (variable *Variable) Data() []byte {
	return variable.data
}
