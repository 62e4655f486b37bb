// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package efi

import "github.com/google/uuid"

// VariableServices defines the platform capability this package's
// enumeration and fetch protocols run against.
//
// A production binding implements it on top of the real firmware call
// table (or an operating system's view of it, such as efivarfs); a test
// binding implements it against a scripted sequence. All operations are
// direct, synchronous calls; the interface defines no cancellation
// primitive and no locking, matching the underlying platform contract.
type VariableServices interface {
	// GetNextVariableName writes the name and namespace of the variable
	// following (prevName, prevNamespace) in store order into nextName
	// and nextNamespace.
	//
	// A previous name consisting of a single zero code unit (or an
	// empty slice) requests the first variable; its namespace is
	// ignored in that case. The length of nextName is the available
	// capacity in code units.
	//
	// On [StatusSuccess] the returned count is the number of code units
	// written. On [StatusBufferTooSmall] it is the capacity a retry
	// must provide; nextName and nextNamespace are unchanged. The end
	// of the enumeration sequence is reported as [StatusNotFound]; a
	// previous name not (or no longer) present in the store is reported
	// as [StatusInvalidParameter].
	GetNextVariableName(prevName []uint16, prevNamespace uuid.UUID, nextName []uint16, nextNamespace *uuid.UUID) (int, Status)

	// GetVariable performs a single fetch of the named variable into
	// the submitted buffer. The three possible outcomes are described
	// by [GetVariableStatus]; this call never retries on its own.
	GetVariable(name []uint16, namespace uuid.UUID, buffer []byte) GetVariableStatus

	// QueryVariableInfo reports the store's capacity figures for the
	// attribute class selected by the submitted mask. There is no retry
	// protocol; the call either returns a consistent snapshot or fails.
	QueryVariableInfo(attributes Attributes) (VariableInfo, Status)
}
