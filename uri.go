// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package varstore

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/edwinzMSFT/go-varstore/binding"
	"github.com/edwinzMSFT/go-varstore/efi"
)

// NewStoreFromURI creates a variable store based upon the submitted uri and base path.
//
// Supported uri formats are:
//
//  1. memory://<?parameters> (e.g. memory://?cache_ttl=60s&storage_size=65536)
//  2. efivarfs://<path><?parameters> (e.g. efivarfs:///sys/firmware/efi/efivars?cache_ttl=60s)
//
// An empty efivarfs path selects the platform default mount point;
// relative paths are evaluated using the submitted base path.
//
// Known uri parameters are:
//
//  1. cache_ttl: The read cache ttl (see [time.ParseDuration])
//  2. storage_size: The memory store's total capacity in bytes
//  3. variable_size: The memory store's per-variable capacity in bytes
//
// See [NewStore] for further details.
func NewStoreFromURI(uri string, basePath string) (*Store, error) {
	parsedURI, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URI '%s' (cause: %w)", uri, err)
	}
	context := &decodeStoreURIContext{uri: parsedURI}
	err = context.decodeStoreURI()
	if err != nil {
		return nil, err
	}
	services, err := context.servicesFactory(context, basePath)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(services, context.cacheTTL)
	if err != nil {
		return nil, err
	}
	return store, nil
}

type decodeStoreURIContext struct {
	uri             *url.URL
	servicesFactory func(context *decodeStoreURIContext, basePath string) (efi.VariableServices, error)
	cacheTTL        time.Duration
	storageSize     uint64
	variableSize    uint64
}

func (context *decodeStoreURIContext) decodeStoreURI() error {
	err := context.decodeStoreURIScheme()
	if err != nil {
		return err
	}
	err = context.decodeStoreURIParameters()
	if err != nil {
		return err
	}
	return nil
}

func (context *decodeStoreURIContext) decodeStoreURIScheme() error {
	switch context.uri.Scheme {
	case "memory":
		context.servicesFactory = newMemoryServicesFromURI
	case "efivarfs":
		context.servicesFactory = newEFIVarFSServicesFromURI
	default:
		return fmt.Errorf("unrecognized binding scheme '%s'", context.uri.Scheme)
	}
	return nil
}

func newMemoryServicesFromURI(context *decodeStoreURIContext, basePath string) (efi.VariableServices, error) {
	return binding.NewMemoryServices(context.storageSize, context.variableSize), nil
}

func newEFIVarFSServicesFromURI(context *decodeStoreURIContext, basePath string) (efi.VariableServices, error) {
	path := context.uri.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(basePath, path)
	}
	return binding.NewEFIVarFS(path)
}

func (context *decodeStoreURIContext) decodeStoreURIParameters() error {
	parameters, err := url.ParseQuery(context.uri.RawQuery)
	if err != nil {
		return fmt.Errorf("failed to parse URI parameters '%s' (cause: %w)", context.uri.RawQuery, err)
	}
	for key, values := range parameters {
		value, err := context.decodeStoreURIParameterValue(key, values)
		if err != nil {
			return err
		}
		switch key {
		case "cache_ttl":
			err = context.decodeStoreURICacheTTL(value)
		case "storage_size":
			err = context.decodeStoreURISize(value, &context.storageSize)
		case "variable_size":
			err = context.decodeStoreURISize(value, &context.variableSize)
		default:
			err = fmt.Errorf("unrecognized URI parameter '%s'", key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (context *decodeStoreURIContext) decodeStoreURIParameterValue(key string, values []string) (string, error) {
	valueCount := len(values)
	if valueCount > 1 {
		return "", fmt.Errorf("multiple values set for parameter '%s'", key)
	}
	return values[0], nil
}

func (context *decodeStoreURIContext) decodeStoreURICacheTTL(value string) error {
	parsedCacheTTL, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("failed to parse cache TTL '%s' (cause: %w)", value, err)
	}
	context.cacheTTL = parsedCacheTTL
	return nil
}

func (context *decodeStoreURIContext) decodeStoreURISize(value string, size *uint64) error {
	parsedSize, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse size '%s' (cause: %w)", value, err)
	}
	*size = parsedSize
	return nil
}
