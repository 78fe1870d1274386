// Package config handles configuration loading from TOML files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/xonecas/inkline/engine"
)

// Config is the root configuration structure.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Log    LogConfig    `toml:"log"`
	Store  StoreConfig  `toml:"store"`
}

// EngineConfig holds editing-engine tuning.
type EngineConfig struct {
	// MaxIndent caps how deep list items can be nested. Defaults to 3.
	MaxIndent int `toml:"max_indent"`

	// HeadingSizes maps heading levels 1-6 to font sizes. Fewer than six
	// entries fall back to the defaults for the missing levels.
	HeadingSizes []float64 `toml:"heading_sizes"`
}

// MaxIndentOrDefault returns the configured indent cap or 3 if unset.
func (e EngineConfig) MaxIndentOrDefault() int {
	if e.MaxIndent <= 0 {
		return 3
	}
	return e.MaxIndent
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Defaults to "info".
	Level string `toml:"level"`

	// Path is the log file location. Defaults to inkline.log in the data
	// directory. Logs never go to the terminal; the TUI owns it.
	Path string `toml:"path"`
}

// LevelOrDefault returns the configured level name or "info" if unset.
func (l LogConfig) LevelOrDefault() string {
	if l.Level == "" {
		return "info"
	}
	return l.Level
}

// StoreConfig holds snapshot store settings.
type StoreConfig struct {
	// Path is the SQLite database location. Defaults to inkline.db in the
	// data directory.
	Path string `toml:"path"`
}

// Default returns the built-in configuration: every field unset, with the
// OrDefault accessors supplying the effective values.
func Default() *Config {
	return &Config{}
}

// Load reads configuration from a TOML file and applies environment variable
// overrides. An empty path yields the defaults; an explicit path that does
// not exist or fails to parse is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if c.Engine.MaxIndent < 0 {
		errs = append(errs, fmt.Errorf("engine.max_indent=%d must not be negative", c.Engine.MaxIndent))
	}
	if len(c.Engine.HeadingSizes) > 6 {
		errs = append(errs, fmt.Errorf("engine.heading_sizes has %d entries, at most 6 allowed", len(c.Engine.HeadingSizes)))
	}
	for i, sz := range c.Engine.HeadingSizes {
		if sz <= 0 {
			errs = append(errs, fmt.Errorf("engine.heading_sizes[%d]=%v must be positive", i, sz))
		}
	}
	switch c.Log.LevelOrDefault() {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, fmt.Errorf("log.level=%q is not a known level", c.Log.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EngineOptions translates the engine section into engine tuning, filling
// unset heading sizes from the defaults.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.MaxIndent = c.Engine.MaxIndentOrDefault()
	for i, sz := range c.Engine.HeadingSizes {
		if i >= len(opts.HeadingSizes) {
			break
		}
		opts.HeadingSizes[i] = sz
	}
	return opts
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"INKLINE_LOG_LEVEL", func(v string) {
			if v != "" {
				cfg.Log.Level = v
			}
		}},
		{"INKLINE_STORE_PATH", func(v string) {
			if v != "" {
				cfg.Store.Path = v
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
}

// DataDir returns the path to the inkline data directory
// (~/.config/inkline).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "inkline"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}
