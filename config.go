// Copyright (C) 2023-2024 Holger de Carne and contributors
//
// This software may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.

package varstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// A Config bundles the settings needed to open a variable store,
// usually read from a YAML file via [LoadConfig].
type Config struct {
	BasePath string `yaml:"-"`
	// StoreURI selects the binding (see [NewStoreFromURI]).
	StoreURI string `yaml:"store_uri"`
	// Namespaces maps friendly aliases to namespace GUIDs.
	Namespaces map[string]string `yaml:"namespaces"`
}

// NewStore opens the variable store this configuration points to.
func (config *Config) NewStore() (*Store, error) {
	return NewStoreFromURI(config.StoreURI, config.BasePath)
}

// ResolveNamespace resolves a configured namespace alias to its GUID.
func (config *Config) ResolveNamespace(alias string) (uuid.UUID, error) {
	value, ok := config.Namespaces[alias]
	if !ok {
		return uuid.UUID{}, fmt.Errorf("unknown namespace alias '%s'", alias)
	}
	namespace, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to parse namespace '%s' (cause: %w)", value, err)
	}
	return namespace, nil
}

// LoadConfig reads a [Config] from the submitted YAML file.
func LoadConfig(path string) (*Config, error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to determine absolute path for configuration file '%s' (cause: %w)", path, err)
	}
	configBytes, err := os.ReadFile(absolutePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file '%s' (cause: %w)", path, err)
	}
	config := defaultConfig()
	err = yaml.Unmarshal(configBytes, config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration file '%s' (cause: %w)", path, err)
	}
	config.BasePath = filepath.Dir(absolutePath)
	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		StoreURI:   "memory://",
		Namespaces: make(map[string]string, 0),
	}
}
