// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package varstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// ExportFormatRaw exports a variable in the efivarfs file layout.
var ExportFormatRaw ExportFormat = &exportFormatRaw{}

// ExportFormatJSON exports a variable as a JSON document.
var ExportFormatJSON ExportFormat = &exportFormatJSON{}

// An ExportFormat writes a single variable to an output stream.
type ExportFormat interface {
	Name() string
	ContentType() string
	Export(out io.Writer, variable *Variable) error
}

type exportFormatRaw struct{}

func (format *exportFormatRaw) Name() string {
	return "Raw"
}

func (format *exportFormatRaw) ContentType() string {
	return "application/octet-stream"
}

// Export writes the variable's attributes as a little-endian 32-bit
// prefix followed by the variable data, the layout efivarfs files use.
func (format *exportFormatRaw) Export(out io.Writer, variable *Variable) error {
	err := binary.Write(out, binary.LittleEndian, uint32(variable.Attributes()))
	if err != nil {
		return fmt.Errorf("failed to export variable '%s' (cause: %w)", variable.Identifier(), err)
	}
	_, err = out.Write(variable.Data())
	if err != nil {
		return fmt.Errorf("failed to export variable '%s' (cause: %w)", variable.Identifier(), err)
	}
	return nil
}

type exportFormatJSON struct{}

func (format *exportFormatJSON) Name() string {
	return "JSON"
}

func (format *exportFormatJSON) ContentType() string {
	return "application/json"
}

type exportedVariable struct {
	Name       string `json:"name"`
	Namespace  string `json:"namespace"`
	Attributes uint32 `json:"attributes"`
	Data       []byte `json:"data"`
}

func (format *exportFormatJSON) Export(out io.Writer, variable *Variable) error {
	exported := &exportedVariable{
		Name:       variable.Name(),
		Namespace:  variable.Namespace().String(),
		Attributes: uint32(variable.Attributes()),
		Data:       variable.Data(),
	}
	exportedBytes, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to export variable '%s' (cause: %w)", variable.Identifier(), err)
	}
	_, err = out.Write(exportedBytes)
	if err != nil {
		return fmt.Errorf("failed to export variable '%s' (cause: %w)", variable.Identifier(), err)
	}
	return nil
}
