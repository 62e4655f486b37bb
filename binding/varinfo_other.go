// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

//go:build !linux

package binding

import "github.com/edwinzMSFT/go-varstore/efi"

func (services *efivarfsServices) QueryVariableInfo(attributes efi.Attributes) (efi.VariableInfo, efi.Status) {
	return efi.VariableInfo{}, efi.StatusUnsupported
}
