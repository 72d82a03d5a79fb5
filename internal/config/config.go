// Package config loads and persists the carbontally configuration file.
//
// Configuration lives at ~/.carbontally/config.yaml. Values resolve in
// the usual precedence order: CLI flags override the config file, which
// overrides built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// configDirName is the per-user directory holding config and logs.
const configDirName = ".carbontally"

// Config is the root of the YAML configuration file.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig locates the material reference database.
type DatabaseConfig struct {
	// Path is the default material database file used when the
	// --database flag is not given.
	Path string `yaml:"path"`
}

// LoggingConfig mirrors logging.Config in YAML form.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

var (
	globalConfig   *Config      //nolint:gochecknoglobals // Set once at startup, read by command handlers
	globalConfigMu sync.RWMutex //nolint:gochecknoglobals // Protects globalConfig
)

// DefaultConfig returns the built-in configuration used when no config
// file exists.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Dir returns the per-user carbontally directory (~/.carbontally).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// DefaultPath returns the config file path (~/.carbontally/config.yaml).
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. A malformed file is an error; a missing one is not.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// SetGlobalConfig stores the loaded config for the lifetime of a CLI
// invocation.
func SetGlobalConfig(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig returns the stored config, or defaults when Load was
// never called (tests, library use).
func GetGlobalConfig() *Config {
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	if globalConfig == nil {
		return DefaultConfig()
	}
	return globalConfig
}
