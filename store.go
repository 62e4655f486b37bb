// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

// Package varstore provides functionality for discovering and reading
// the variables of a firmware-resident variable store.
//
// The package wraps the low level enumeration and fetch protocol of the
// [efi] package into a store-level API; the [binding] package provides
// the platform bindings the store runs against.
package varstore

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/edwinzMSFT/go-varstore/efi"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// An ErrNotExist error indicates the requested variable is not present in the store.
var ErrNotExist = errors.New("variable does not exist")

// An ErrInvalidInfo error indicates the platform binding reported inconsistent capacity figures.
var ErrInvalidInfo = errors.New("inconsistent variable store info")

// A Store represents a firmware variable store accessed through a
// [efi.VariableServices] binding.
//
// The store adds the conveniences the raw protocol leaves to its
// callers: the two-call size discovery on reads, an optional read
// cache, and store-level traversal. It adds no concurrency control over
// the underlying store; if the firmware's variables change while a
// traversal is running, entries may be skipped or repeated.
type Store struct {
	services  efi.VariableServices
	readCache *ttlcache.Cache[string, *Variable]
	logger    *slog.Logger
}

// Name gets the store name which is derived from the underlying binding.
func (store *Store) Name() string {
	return fmt.Sprintf("Store[%s]", servicesName(store.services))
}

// Variables traverses all variables of the store.
//
// The returned [Variables] collection is lazy and backed by the live
// store; it reflects the enumeration order of the underlying binding.
func (store *Store) Variables() *Variables {
	return &Variables{store: store, iter: efi.NewVariableNameIterator(store.services)}
}

// VariablesFrom traverses the variables following a known variable in
// store order. The submitted variable itself is not part of the
// collection.
func (store *Store) VariablesFrom(name string, namespace uuid.UUID) *Variables {
	anchor := efi.NewVariableIdentifierString(name, namespace)
	return &Variables{store: store, iter: efi.NewVariableNameIteratorFrom(anchor.Name(), anchor.Namespace(), store.services)}
}

// Read looks up the variable with the submitted name and namespace and
// reads its attributes and data.
//
// If the submitted variable does not exist, [ErrNotExist] is returned.
func (store *Store) Read(name string, namespace uuid.UUID) (*Variable, error) {
	identifier := efi.NewVariableIdentifierString(name, namespace)
	return store.ReadIdentifier(&identifier)
}

// ReadIdentifier reads the variable denoted by the submitted
// identifier, e.g. one yielded during a traversal.
//
// The read follows the standard two-call size discovery: a first fetch
// with an empty buffer establishes the exact data size, a second one
// retrieves the data into an allocation of exactly that size.
func (store *Store) ReadIdentifier(identifier *efi.VariableIdentifier) (*Variable, error) {
	cacheKey := identifier.String()
	cached := store.cacheGet(cacheKey)
	if cached != nil {
		return cached.Value(), nil
	}
	probe := store.services.GetVariable(identifier.Name(), identifier.Namespace(), nil)
	if err := probe.Err(); err != nil {
		return nil, mapStatusError(err)
	}
	attributes := probe.Attributes()
	var data []byte
	if probe.BufferTooSmall() {
		data = make([]byte, probe.DataSize())
		fetch := store.services.GetVariable(identifier.Name(), identifier.Namespace(), data)
		if err := fetch.Err(); err != nil {
			return nil, mapStatusError(err)
		}
		if fetch.BufferTooSmall() {
			return nil, fmt.Errorf("variable '%s' grew during read (%d to %d bytes)", identifier, probe.DataSize(), fetch.DataSize())
		}
		data = data[:fetch.DataSize()]
		attributes = fetch.Attributes()
	}
	variable := &Variable{
		identifier: identifier.Clone(),
		attributes: attributes,
		data:       data,
	}
	store.cacheSet(cacheKey, variable)
	store.logger.Debug("read variable", slog.String("variable", cacheKey), slog.Int("size", len(data)))
	return variable, nil
}

// Info queries the store's capacity figures for the attribute class
// selected by the submitted mask.
//
// A binding response violating the capacity invariants is reported as
// an [ErrInvalidInfo] error, never corrected.
func (store *Store) Info(attributes efi.Attributes) (*efi.VariableInfo, error) {
	info, status := store.services.QueryVariableInfo(attributes)
	if err := status.Err(); err != nil {
		return nil, err
	}
	err := info.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w (cause: %v)", ErrInvalidInfo, err)
	}
	return &info, nil
}

func mapStatusError(err error) error {
	if errors.Is(err, efi.StatusNotFound) {
		return ErrNotExist
	}
	return err
}

func (store *Store) cacheGet(key string) *ttlcache.Item[string, *Variable] {
	if store.readCache != nil {
		return store.readCache.Get(key)
	}
	return nil
}

func (store *Store) cacheSet(key string, variable *Variable) {
	if store.readCache != nil {
		store.readCache.Set(key, variable, ttlcache.DefaultTTL)
	}
}

func servicesName(services efi.VariableServices) string {
	if stringer, ok := services.(fmt.Stringer); ok {
		return stringer.String()
	}
	return fmt.Sprintf("%T", services)
}

// NewStore creates a variable store on top of the submitted binding.
//
// A positive cache TTL enables caching of read results for the given
// duration; a store serving callers that expect to observe concurrent
// firmware updates should disable the cache by submitting 0.
func NewStore(services efi.VariableServices, cacheTTL time.Duration) (*Store, error) {
	logger := slog.With(slog.String("store", servicesName(services)))
	var readCache *ttlcache.Cache[string, *Variable]
	if cacheTTL > 0 {
		readCache = ttlcache.New(ttlcache.WithTTL[string, *Variable](cacheTTL))
		go readCache.Start()
		runtime.SetFinalizer(readCache, func(cache *ttlcache.Cache[string, *Variable]) { cache.Stop() })
	}
	return &Store{
		services:  services,
		readCache: readCache,
		logger:    logger,
	}, nil
}
