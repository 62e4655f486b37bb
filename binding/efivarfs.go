// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package binding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/edwinzMSFT/go-varstore/efi"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tdrn-org/go-log"
)

// DefaultEFIVarFSPath is the standard mount point of the kernel's
// efivarfs filesystem.
const DefaultEFIVarFSPath = "/sys/firmware/efi/efivars"

// Each efivarfs file starts with the variable's attributes, followed by
// the variable data.
const efivarfsAttributesSize = 4

const guidStringLen = 36

type efivarfsServices struct {
	path   string
	logger *zerolog.Logger
}

// NewEFIVarFS creates a [efi.VariableServices] binding on top of an
// efivarfs directory tree. An empty path selects [DefaultEFIVarFSPath].
//
// Variables appear as "Name-GUID" files whose first four bytes carry
// the attributes (little-endian) and whose remainder is the variable
// data. Enumeration order is the lexical file name order.
func NewEFIVarFS(path string) (efi.VariableServices, error) {
	if path == "" {
		path = DefaultEFIVarFSPath
	}
	checkedPath, err := checkEFIVarFSPath(path)
	if err != nil {
		return nil, err
	}
	logger := log.RootLogger().With().Str("Binding", "efivarfs://"+checkedPath).Logger()
	return &efivarfsServices{
		path:   checkedPath,
		logger: &logger,
	}, nil
}

func checkEFIVarFSPath(path string) (string, error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return absolutePath, fmt.Errorf("unable to determine absolute path for '%s' (cause: %v)", path, err)
	}
	pathInfo, err := os.Stat(absolutePath)
	if err != nil {
		return absolutePath, fmt.Errorf("unable to access variable store path '%s' (cause: %v)", path, err)
	}
	if !pathInfo.IsDir() {
		return absolutePath, fmt.Errorf("variable store path '%s' is not a directory", path)
	}
	return absolutePath, nil
}

func (services *efivarfsServices) String() string {
	return "efivarfs://" + services.path
}

func (services *efivarfsServices) variablePath(identifier *efi.VariableIdentifier) string {
	return filepath.Join(services.path, identifier.String())
}

func parseVariableFileName(fileName string) (efi.VariableIdentifier, bool) {
	if len(fileName) < guidStringLen+2 {
		return efi.VariableIdentifier{}, false
	}
	guidStart := len(fileName) - guidStringLen
	if fileName[guidStart-1] != '-' {
		return efi.VariableIdentifier{}, false
	}
	namespace, err := uuid.Parse(fileName[guidStart:])
	if err != nil {
		return efi.VariableIdentifier{}, false
	}
	return efi.NewVariableIdentifierString(fileName[:guidStart-1], namespace), true
}

func (services *efivarfsServices) listVariables() ([]efi.VariableIdentifier, efi.Status) {
	entries, err := os.ReadDir(services.path)
	if err != nil {
		services.logger.Error().Msgf("failed to list variable store '%s' (cause: %v)", services.path, err)
		return nil, efi.StatusDeviceError
	}
	identifiers := make([]efi.VariableIdentifier, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		identifier, ok := parseVariableFileName(entry.Name())
		if !ok {
			services.logger.Debug().Msgf("ignoring unrecognized entry '%s'", entry.Name())
			continue
		}
		identifiers = append(identifiers, identifier)
	}
	return identifiers, efi.StatusSuccess
}

func (services *efivarfsServices) GetNextVariableName(prevName []uint16, prevNamespace uuid.UUID, nextName []uint16, nextNamespace *uuid.UUID) (int, efi.Status) {
	identifiers, status := services.listVariables()
	if status != efi.StatusSuccess {
		return 0, status
	}
	prev := efi.NewVariableIdentifier(prevName, prevNamespace)
	nextIndex := 0
	if !prev.IsStart() {
		nextIndex = -1
		for identifierIndex := range identifiers {
			if identifiers[identifierIndex].Equal(&prev) {
				nextIndex = identifierIndex + 1
				break
			}
		}
		if nextIndex < 0 {
			return 0, efi.StatusInvalidParameter
		}
	}
	if nextIndex >= len(identifiers) {
		return 0, efi.StatusNotFound
	}
	next := &identifiers[nextIndex]
	nextNameLen := len(next.Name())
	if len(nextName) < nextNameLen {
		return nextNameLen, efi.StatusBufferTooSmall
	}
	copy(nextName, next.Name())
	*nextNamespace = next.Namespace()
	return nextNameLen, efi.StatusSuccess
}

func (services *efivarfsServices) GetVariable(name []uint16, namespace uuid.UUID, buffer []byte) efi.GetVariableStatus {
	identifier := efi.NewVariableIdentifier(name, namespace)
	content, err := os.ReadFile(services.variablePath(&identifier))
	if err != nil {
		return efi.GetVariableError(mapFSError(err))
	}
	if len(content) < efivarfsAttributesSize {
		services.logger.Error().Msgf("variable '%s' is truncated (%d bytes)", &identifier, len(content))
		return efi.GetVariableError(efi.StatusDeviceError)
	}
	attributes := efi.Attributes(binary.LittleEndian.Uint32(content[:efivarfsAttributesSize]))
	data := content[efivarfsAttributesSize:]
	if len(buffer) < len(data) {
		return efi.GetVariableBufferTooSmall(len(data), attributes)
	}
	copy(buffer, data)
	return efi.GetVariableSuccess(len(data), attributes)
}

func mapFSError(err error) efi.Status {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return efi.StatusNotFound
	case errors.Is(err, fs.ErrPermission):
		return efi.StatusSecurityViolation
	}
	return efi.StatusDeviceError
}
