// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

// Package binding provides platform bindings implementing the
// [efi.VariableServices] capability.
package binding

import (
	"sync"

	"github.com/edwinzMSFT/go-varstore/efi"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tdrn-org/go-log"
)

const memoryServicesURI = "memory://"

// Default capacity figures applied whenever a limit is left zero.
const DefaultMemoryStorageSize uint64 = 64 * 1024
const DefaultMemoryVariableSize uint64 = 1024

type memoryVariable struct {
	identifier efi.VariableIdentifier
	attributes efi.Attributes
	data       []byte
}

// MemoryServices implements [efi.VariableServices] against an in-memory
// variable store.
//
// Enumeration order is creation order. The store is primarily meant for
// tests and for running store logic detached from real firmware; the
// [MemoryServices.Set] and [MemoryServices.Delete] functions allow
// populating and mutating it directly.
type MemoryServices struct {
	lock                sync.RWMutex
	variables           []*memoryVariable
	maximumStorageSize  uint64
	maximumVariableSize uint64
	logger              *zerolog.Logger
}

// NewMemoryServices creates an empty in-memory variable store with the
// submitted capacity figures; zero values select the defaults.
func NewMemoryServices(maximumStorageSize uint64, maximumVariableSize uint64) *MemoryServices {
	if maximumStorageSize == 0 {
		maximumStorageSize = DefaultMemoryStorageSize
	}
	if maximumVariableSize == 0 {
		maximumVariableSize = DefaultMemoryVariableSize
	}
	if maximumVariableSize > maximumStorageSize {
		maximumVariableSize = maximumStorageSize
	}
	logger := log.RootLogger().With().Str("Binding", memoryServicesURI).Logger()
	return &MemoryServices{
		variables:           make([]*memoryVariable, 0),
		maximumStorageSize:  maximumStorageSize,
		maximumVariableSize: maximumVariableSize,
		logger:              &logger,
	}
}

func (services *MemoryServices) String() string {
	return memoryServicesURI
}

// Set creates or replaces a variable. A replaced variable keeps its
// position in enumeration order; a new one is appended.
func (services *MemoryServices) Set(name string, namespace uuid.UUID, attributes efi.Attributes, data []byte) {
	services.lock.Lock()
	defer services.lock.Unlock()
	identifier := efi.NewVariableIdentifierString(name, namespace)
	variable := &memoryVariable{
		identifier: identifier,
		attributes: attributes,
		data:       append([]byte(nil), data...),
	}
	for variableIndex, existing := range services.variables {
		if existing.identifier.Equal(&identifier) {
			services.variables[variableIndex] = variable
			services.logger.Debug().Msgf("replaced variable '%s'", &identifier)
			return
		}
	}
	services.variables = append(services.variables, variable)
	services.logger.Debug().Msgf("created variable '%s'", &identifier)
}

// Delete removes a variable and reports whether it existed.
func (services *MemoryServices) Delete(name string, namespace uuid.UUID) bool {
	services.lock.Lock()
	defer services.lock.Unlock()
	identifier := efi.NewVariableIdentifierString(name, namespace)
	for variableIndex, existing := range services.variables {
		if existing.identifier.Equal(&identifier) {
			services.variables = append(services.variables[:variableIndex], services.variables[variableIndex+1:]...)
			services.logger.Debug().Msgf("deleted variable '%s'", &identifier)
			return true
		}
	}
	return false
}

func (services *MemoryServices) GetNextVariableName(prevName []uint16, prevNamespace uuid.UUID, nextName []uint16, nextNamespace *uuid.UUID) (int, efi.Status) {
	services.lock.RLock()
	defer services.lock.RUnlock()
	prev := efi.NewVariableIdentifier(prevName, prevNamespace)
	nextIndex := 0
	if !prev.IsStart() {
		nextIndex = -1
		for variableIndex, existing := range services.variables {
			if existing.identifier.Equal(&prev) {
				nextIndex = variableIndex + 1
				break
			}
		}
		if nextIndex < 0 {
			return 0, efi.StatusInvalidParameter
		}
	}
	if nextIndex >= len(services.variables) {
		return 0, efi.StatusNotFound
	}
	next := services.variables[nextIndex]
	nextNameLen := len(next.identifier.Name())
	if len(nextName) < nextNameLen {
		return nextNameLen, efi.StatusBufferTooSmall
	}
	copy(nextName, next.identifier.Name())
	*nextNamespace = next.identifier.Namespace()
	return nextNameLen, efi.StatusSuccess
}

func (services *MemoryServices) GetVariable(name []uint16, namespace uuid.UUID, buffer []byte) efi.GetVariableStatus {
	services.lock.RLock()
	defer services.lock.RUnlock()
	identifier := efi.NewVariableIdentifier(name, namespace)
	for _, existing := range services.variables {
		if !existing.identifier.Equal(&identifier) {
			continue
		}
		if len(buffer) < len(existing.data) {
			return efi.GetVariableBufferTooSmall(len(existing.data), existing.attributes)
		}
		copy(buffer, existing.data)
		return efi.GetVariableSuccess(len(existing.data), existing.attributes)
	}
	return efi.GetVariableError(efi.StatusNotFound)
}

func (services *MemoryServices) QueryVariableInfo(attributes efi.Attributes) (efi.VariableInfo, efi.Status) {
	services.lock.RLock()
	defer services.lock.RUnlock()
	// The in-memory store keeps no per-class accounting; figures are
	// store-wide regardless of the submitted mask.
	usedStorageSize := uint64(0)
	for _, existing := range services.variables {
		usedStorageSize += uint64(2*len(existing.identifier.Name()) + len(existing.data))
	}
	remainingStorageSize := uint64(0)
	if usedStorageSize < services.maximumStorageSize {
		remainingStorageSize = services.maximumStorageSize - usedStorageSize
	}
	return efi.VariableInfo{
		MaximumVariableStorageSize:   services.maximumStorageSize,
		RemainingVariableStorageSize: remainingStorageSize,
		MaximumVariableSize:          services.maximumVariableSize,
	}, efi.StatusSuccess
}
