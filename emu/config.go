// Package emu provides functional ABS-M emulation.
package emu

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Config holds machine configuration values.
type Config struct {
	// MemorySize is the memory size in words. Default: 300.
	MemorySize uint32 `json:"memory_size"`

	// MaxInstructions bounds the number of instructions a run may
	// retire; 0 means no limit. A malformed program otherwise loops
	// until it fetches the terminator. Default: 0.
	MaxInstructions uint64 `json:"max_instructions"`
}

// DefaultConfig returns the default machine configuration.
func DefaultConfig() *Config {
	return &Config{
		MemorySize:      DefaultMemorySize,
		MaxInstructions: 0,
	}
}

// LoadConfig loads a machine configuration from a JSON file. Omitted
// fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}

	if config.MemorySize == 0 {
		return nil, errors.New("memory_size must be positive")
	}

	return config, nil
}
