// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

// Package efi provides the core types and the enumeration protocol for
// accessing a firmware-resident variable store through a platform
// runtime-services interface.
package efi

import "fmt"

// A Status represents a raw status code as reported by the firmware's
// runtime services.
//
// Error codes carry the high bit; [StatusSuccess] is the only
// non-warning, non-error code used by this package.
type Status uint64

const statusErrorBit Status = 1 << 63

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0
	// StatusInvalidParameter indicates a malformed request (e.g. an unknown previous variable name).
	StatusInvalidParameter Status = statusErrorBit | 2
	// StatusUnsupported indicates the operation is not supported by the platform.
	StatusUnsupported Status = statusErrorBit | 3
	// StatusBufferTooSmall indicates an undersized caller buffer; the required size is reported alongside.
	StatusBufferTooSmall Status = statusErrorBit | 5
	// StatusDeviceError indicates a hardware level failure.
	StatusDeviceError Status = statusErrorBit | 7
	// StatusOutOfResources indicates the store has insufficient space left.
	StatusOutOfResources Status = statusErrorBit | 9
	// StatusNotFound indicates a missing variable, or the end of the enumeration sequence.
	StatusNotFound Status = statusErrorBit | 14
	// StatusSecurityViolation indicates the variable's authentication requirements were not met.
	StatusSecurityViolation Status = statusErrorBit | 26
)

// IsError reports whether this status represents a failure.
func (status Status) IsError() bool {
	return status&statusErrorBit != 0
}

// Err returns this status as an error, or nil if it does not represent a failure.
func (status Status) Err() error {
	if !status.IsError() {
		return nil
	}
	return status
}

func (status Status) Error() string {
	return status.String()
}

func (status Status) String() string {
	switch status {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInvalidParameter:
		return "INVALID_PARAMETER"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusBufferTooSmall:
		return "BUFFER_TOO_SMALL"
	case StatusDeviceError:
		return "DEVICE_ERROR"
	case StatusOutOfResources:
		return "OUT_OF_RESOURCES"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusSecurityViolation:
		return "SECURITY_VIOLATION"
	}
	return fmt.Sprintf("status 0x%016x", uint64(status))
}

// Attributes represents the attribute bits of a variable, selecting its
// storage class and access rules.
type Attributes uint32

const (
	// AttributeNonVolatile marks a variable persisting across resets.
	AttributeNonVolatile Attributes = 1 << 0
	// AttributeBootserviceAccess marks a variable accessible during boot services.
	AttributeBootserviceAccess Attributes = 1 << 1
	// AttributeRuntimeAccess marks a variable accessible at runtime.
	AttributeRuntimeAccess Attributes = 1 << 2
	// AttributeHardwareErrorRecord marks a hardware error record variable.
	AttributeHardwareErrorRecord Attributes = 1 << 3
	// AttributeAuthenticatedWriteAccess marks a variable requiring authenticated writes (deprecated in recent platform revisions).
	AttributeAuthenticatedWriteAccess Attributes = 1 << 4
	// AttributeTimeBasedAuthenticatedWriteAccess marks a variable requiring time based authenticated writes.
	AttributeTimeBasedAuthenticatedWriteAccess Attributes = 1 << 5
	// AttributeAppendWrite marks a variable supporting append writes.
	AttributeAppendWrite Attributes = 1 << 6
)

// A GetVariableStatus represents the outcome of a single fetch-by-name
// call (see [VariableServices.GetVariable]).
//
// Exactly one of the three outcomes applies:
//
//  1. Error: the fetch failed for a reason other than sizing ([GetVariableStatus.Err] is non-nil).
//  2. BufferTooSmall: the caller's buffer was undersized; [GetVariableStatus.DataSize]
//     is the exact size a retry must allocate and [GetVariableStatus.Attributes] is
//     already valid, even though no data was copied.
//  3. Success: the data was copied; [GetVariableStatus.DataSize] is the exact number
//     of bytes written.
//
// Retrying after a BufferTooSmall outcome is always the caller's explicit
// responsibility; this path never retries automatically.
type GetVariableStatus struct {
	status     Status
	dataSize   int
	attributes Attributes
}

// GetVariableError creates a [GetVariableStatus] for a failed fetch.
func GetVariableError(status Status) GetVariableStatus {
	return GetVariableStatus{status: status}
}

// GetVariableBufferTooSmall creates a [GetVariableStatus] for an undersized buffer outcome.
func GetVariableBufferTooSmall(dataSize int, attributes Attributes) GetVariableStatus {
	return GetVariableStatus{status: StatusBufferTooSmall, dataSize: dataSize, attributes: attributes}
}

// GetVariableSuccess creates a [GetVariableStatus] for a successful fetch.
func GetVariableSuccess(dataSize int, attributes Attributes) GetVariableStatus {
	return GetVariableStatus{status: StatusSuccess, dataSize: dataSize, attributes: attributes}
}

// Status gets the raw status underlying this outcome.
func (status GetVariableStatus) Status() Status {
	return status.status
}

// BufferTooSmall reports whether this outcome requests a retry with a
// buffer of at least [GetVariableStatus.DataSize] bytes.
func (status GetVariableStatus) BufferTooSmall() bool {
	return status.status == StatusBufferTooSmall
}

// Err returns the fetch failure, or nil for the Success and
// BufferTooSmall outcomes.
func (status GetVariableStatus) Err() error {
	if status.status == StatusBufferTooSmall {
		return nil
	}
	return status.status.Err()
}

// DataSize gets the number of bytes copied (Success) or required (BufferTooSmall).
func (status GetVariableStatus) DataSize() int {
	return status.dataSize
}

// Attributes gets the variable's attributes; valid for the Success and
// BufferTooSmall outcomes.
func (status GetVariableStatus) Attributes() Attributes {
	return status.attributes
}

// VariableInfo represents a snapshot of the store's aggregate capacity
// for one attribute class (see [VariableServices.QueryVariableInfo]).
type VariableInfo struct {
	// MaximumVariableStorageSize is the total storage space available for variables of the queried attribute class.
	MaximumVariableStorageSize uint64
	// RemainingVariableStorageSize is the storage space still unused.
	RemainingVariableStorageSize uint64
	// MaximumVariableSize is the largest size an individual variable of the queried attribute class may have.
	MaximumVariableSize uint64
}

// Validate checks the capacity figures for consistency.
//
// The remaining storage space can never exceed the total storage space,
// nor can a single variable. A violation indicates a misbehaving
// platform binding and is reported, never corrected.
func (info VariableInfo) Validate() error {
	if info.RemainingVariableStorageSize > info.MaximumVariableStorageSize {
		return fmt.Errorf("remaining storage size %d exceeds maximum storage size %d", info.RemainingVariableStorageSize, info.MaximumVariableStorageSize)
	}
	if info.MaximumVariableSize > info.MaximumVariableStorageSize {
		return fmt.Errorf("maximum variable size %d exceeds maximum storage size %d", info.MaximumVariableSize, info.MaximumVariableStorageSize)
	}
	return nil
}
