// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

//go:build linux

package binding

import (
	"github.com/edwinzMSFT/go-varstore/efi"
	"golang.org/x/sys/unix"
)

// efivarfs imposes no hard per-variable limit of its own; firmware
// implementations commonly cap variables at 64KiB.
const efivarfsMaximumVariableSize uint64 = 64 * 1024

func (services *efivarfsServices) QueryVariableInfo(attributes efi.Attributes) (efi.VariableInfo, efi.Status) {
	// efivarfs exposes no per-class accounting; the reported figures
	// are filesystem-wide regardless of the submitted mask.
	var stat unix.Statfs_t
	err := unix.Statfs(services.path, &stat)
	if err != nil {
		services.logger.Error().Msgf("failed to stat variable store '%s' (cause: %v)", services.path, err)
		return efi.VariableInfo{}, efi.StatusDeviceError
	}
	blockSize := uint64(stat.Bsize)
	maximumStorageSize := stat.Blocks * blockSize
	remainingStorageSize := stat.Bavail * blockSize
	maximumVariableSize := efivarfsMaximumVariableSize
	if maximumVariableSize > maximumStorageSize {
		maximumVariableSize = maximumStorageSize
	}
	return efi.VariableInfo{
		MaximumVariableStorageSize:   maximumStorageSize,
		RemainingVariableStorageSize: remainingStorageSize,
		MaximumVariableSize:          maximumVariableSize,
	}, efi.StatusSuccess
}
