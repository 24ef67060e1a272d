// Package wconfig provides configuration loading and validation for the
// watch-only indexing engine, following internal/config's TOML-plus-
// validation structure.
package wconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the engine.
type Config struct {
	// DataDir is where the durable store lives. Created on first open,
	// retained across restarts, destroyed only by the operator.
	DataDir string `toml:"data_dir"`

	// GapLimit is the number of consecutive unused scripts kept derived
	// ahead of the highest used index of every wildcard descriptor.
	GapLimit uint32 `toml:"gap_limit"`

	// Network selects the chain parameters scripts are derived and
	// encoded for: "mainnet", "testnet3", "regtest", or "signet".
	Network string `toml:"network"`

	// Backend selects the durable-store implementation: "kv" (Pebble) or
	// "memory" (process-local, discarded on exit).
	Backend string `toml:"backend"`

	Logging LoggingConfig `toml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`
}

// DefaultConfig returns a configuration with sensible defaults for local
// development against regtest.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "./data/watch.db",
		GapLimit: 100,
		Network:  "regtest",
		Backend:  "kv",
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile reads configuration from a TOML file. Missing fields retain
// their default values.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var validNetworks = map[string]bool{
	"mainnet":  true,
	"testnet3": true,
	"regtest":  true,
	"signet":   true,
}

var validBackends = map[string]bool{
	"kv":     true,
	"memory": true,
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration for common errors, aggregating every
// violation into one error.
func (c *Config) Validate() error {
	var errs []string

	if c.DataDir == "" {
		errs = append(errs, "data_dir is required")
	}
	if c.GapLimit == 0 {
		errs = append(errs, "gap_limit must be positive")
	}
	if !validNetworks[strings.ToLower(c.Network)] {
		errs = append(errs, "network must be one of: mainnet, testnet3, regtest, signet")
	}
	if !validBackends[strings.ToLower(c.Backend)] {
		errs = append(errs, "backend must be one of: kv, memory")
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// NetworkParams resolves the configured network name to chain parameters.
func (c *Config) NetworkParams() (*chaincfg.Params, error) {
	switch strings.ToLower(c.Network) {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", c.Network)
	}
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	dir := filepath.Dir(c.DataDir)
	if dir == "" || dir == "." {
		dir = c.DataDir
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Data Dir:  %s
  Gap Limit: %d
  Network:   %s
  Backend:   %s
  Logging:
    Level:   %s`,
		c.DataDir,
		c.GapLimit,
		c.Network,
		c.Backend,
		c.Logging.Level,
	)
}
