// Package config handles Inkwell's editor configuration file.
//
// Configuration lives in a single YAML document, by default at
// ~/.config/inkwell/config.yaml. Only the settings the plugin subsystem
// consumes are modeled here; widget and keymap settings belong to their
// own collaborators.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration for Inkwell.
type Config struct {
	// PluginDirs are the plugin search directories, scanned in order.
	// Built-in directories should come before user-supplied ones so that
	// discovery order, and with it load-order tie-breaking, is stable.
	PluginDirs []string `yaml:"plugin_dirs"`

	// AllowPlugins, when non-empty, restricts the initial load pass to
	// the named plugins.
	AllowPlugins []string `yaml:"allow_plugins"`

	// DenyPlugins excludes the named plugins from the initial load pass.
	DenyPlugins []string `yaml:"deny_plugins"`

	// DataDir is where runtime state (the persisted disabled set) lives.
	DataDir string `yaml:"data_dir"`

	// LogLevel sets logging verbosity: debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`
}

// Config validation errors.
var (
	ErrNoPluginDirs   = errors.New("config: at least one plugin directory is required")
	ErrInvalidLogTier = errors.New("config: log_level must be debug, info, warn, or error")
)

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{
		LogLevel: "info",
	}

	if home, err := os.UserHomeDir(); err == nil {
		cfg.PluginDirs = append(cfg.PluginDirs, filepath.Join(home, ".config", "inkwell", "plugins"))
		cfg.DataDir = filepath.Join(home, ".local", "share", "inkwell")
	}
	if cwd, err := os.Getwd(); err == nil {
		cfg.PluginDirs = append(cfg.PluginDirs, filepath.Join(cwd, ".inkwell", "plugins"))
	}

	return cfg
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "inkwell", "config.yaml")
}

// Load reads a configuration file over the defaults. A missing file is not
// an error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if len(c.PluginDirs) == 0 {
		return ErrNoPluginDirs
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogTier, c.LogLevel)
	}
	return nil
}

// StateFilePath returns the location of the persisted plugin state.
func (c *Config) StateFilePath() string {
	return filepath.Join(c.DataDir, "plugin-state.json")
}
