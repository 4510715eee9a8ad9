// Package config handles ruffle.toml player configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents a ruffle.toml player configuration.
type Config struct {
	Player  Player  `toml:"player"`
	Storage Storage `toml:"storage"`
	Log     Log     `toml:"log"`
}

// Player configures interpreter behavior.
type Player struct {
	// LazyInit defers script initializers until a definition from the
	// script is first resolved.
	LazyInit bool `toml:"lazy-init"`

	// DebugOutput enables per-instruction execution logging.
	DebugOutput bool `toml:"debug-output"`
}

// Storage configures shared object persistence.
type Storage struct {
	// Path is the SQLite database location. Empty selects the default
	// under the user's home directory.
	Path string `toml:"path"`

	// InMemory selects a non-persistent backend and ignores Path.
	InMemory bool `toml:"in-memory"`
}

// Log configures logging output.
type Log struct {
	// Verbosity maps to commonlog verbosity levels, 0 being notices only.
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no ruffle.toml is present.
func Default() *Config {
	return &Config{}
}

// Load parses a ruffle.toml file from the given directory. A missing file
// yields the defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "ruffle.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &c, nil
}

// StoragePath resolves the configured database path, defaulting to
// ~/.ruffle/shared_objects.db.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	return filepath.Join(home, ".ruffle", "shared_objects.db"), nil
}
