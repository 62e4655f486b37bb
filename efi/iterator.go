// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package efi

import (
	"fmt"

	"github.com/google/uuid"
)

// Initial name buffer capacity in code units. The platform
// specification suggests 1024 bytes as a reasonable first guess.
const initialNameCapacity = 512

// Upper bound for the grow-and-retry loop within a single advance; a
// binding repeatedly reporting an undersized buffer without raising its
// requirement is broken.
const maxNameGrowRetries = 4

// A VariableNameIterator lazily enumerates the identifiers of all
// variables in the store, one advance per stored variable.
//
// The iterator starts positioned before its first item, either at the
// very beginning of store order ([NewVariableNameIterator]) or at a
// known existing variable ([NewVariableNameIteratorFrom]). Each
// [VariableNameIterator.Advance] asks the platform binding for the
// following identifier; enumeration ends when the binding signals
// exhaustion, which is a successful termination, not an error.
//
// The sequence is finite and one-shot: re-scanning requires a fresh
// iterator. An iterator instance is not safe for concurrent use, its
// cursor is mutated in place on every advance. If the store is modified
// between advances, entries may be skipped or repeated; this caveat is
// inherited from the underlying store semantics.
//
// Typical usage:
//
//	iter := efi.NewVariableNameIterator(services)
//	for {
//		identifier, err := iter.Next()
//		if err != nil {
//			return err
//		}
//		if identifier == nil {
//			break
//		}
//		// identifier is only valid until the next advance
//	}
type VariableNameIterator struct {
	services VariableServices

	current VariableIdentifier
	next    VariableIdentifier

	started  bool
	finished bool
}

// NewVariableNameIterator creates an iterator positioned at the start
// of the store's enumeration order.
func NewVariableNameIterator(services VariableServices) *VariableNameIterator {
	return &VariableNameIterator{
		services: services,
		current:  newStartIdentifier(initialNameCapacity),
		next:     VariableIdentifier{name: make([]uint16, initialNameCapacity)},
	}
}

// NewVariableNameIteratorFrom creates an iterator positioned at a known
// existing variable; the first advance yields the identifier following
// it in store order. The anchor itself is never yielded.
func NewVariableNameIteratorFrom(name []uint16, namespace uuid.UUID, services VariableServices) *VariableNameIterator {
	currentName := make([]uint16, len(name), max(len(name), initialNameCapacity))
	copy(currentName, name)
	return &VariableNameIterator{
		services: services,
		current:  VariableIdentifier{name: currentName, namespace: namespace},
		next:     VariableIdentifier{name: make([]uint16, initialNameCapacity)},
	}
}

// Advance moves the iterator to the next identifier in store order.
//
// Reaching the end of the sequence is not an error; [VariableNameIterator.Get]
// simply returns nil afterwards, and further advances are cheap no-ops.
// Any other failure reported by the binding is returned verbatim as a
// [Status] error; the iterator must not be consumed further after such
// a failure.
func (iter *VariableNameIterator) Advance() error {
	if iter.finished {
		return nil
	}
	iter.started = true
	// Reuse the scratch buffer at full capacity; it holds the previous
	// item's backing array after the first swap.
	name := iter.next.name[:cap(iter.next.name)]
	var namespace uuid.UUID
	var nameLen int
	var status Status
	for retry := 0; ; retry++ {
		nameLen, status = iter.services.GetNextVariableName(iter.current.name, iter.current.namespace, name, &namespace)
		if status != StatusBufferTooSmall {
			break
		}
		if retry >= maxNameGrowRetries || nameLen <= len(name) {
			return fmt.Errorf("name buffer growth to %d units rejected (cause: %w)", nameLen, status)
		}
		name = make([]uint16, nameLen)
	}
	if status == StatusNotFound {
		iter.finished = true
		return nil
	}
	if err := status.Err(); err != nil {
		return err
	}
	iter.next.name = name[:nameLen]
	iter.next.namespace = namespace
	// Swap cursor and scratch; the previous item's buffer is reused on
	// the next advance instead of being reallocated.
	iter.current, iter.next = iter.next, iter.current
	return nil
}

// Get gets the identifier the iterator is currently positioned on.
//
// nil is returned before the first advance and after the sequence is
// exhausted. The returned identifier is borrowed: it is only valid
// until the next advance, use [VariableIdentifier.Clone] to retain it.
func (iter *VariableNameIterator) Get() *VariableIdentifier {
	if !iter.started || iter.finished {
		return nil
	}
	return &iter.current
}

// Next advances the iterator and gets the resulting identifier.
//
// nil is returned if the sequence is exhausted.
func (iter *VariableNameIterator) Next() (*VariableIdentifier, error) {
	err := iter.Advance()
	if err != nil {
		return nil, err
	}
	return iter.Get(), nil
}
