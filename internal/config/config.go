// Package config resolves roast settings from defaults, an optional YAML
// file and ROAST_* environment variables, in that order of precedence.
// Command-line flags are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "ROAST"

// DefaultFile is read when no config path is given and it exists in the
// working directory.
const DefaultFile = "roast.yaml"

// Config holds the settings shared by all commands.
type Config struct {
	// Luminosity is the integrated luminosity in pb^-1 used by normalize.
	Luminosity float64 `yaml:"luminosity" envconfig:"LUMINOSITY"`
	Database   string  `yaml:"database" envconfig:"DB"`
	Catalog    string  `yaml:"catalog" envconfig:"CATALOG"`
	LogLevel   string  `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Format     string  `yaml:"format" envconfig:"FORMAT"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database: "roast.db",
		LogLevel: "info",
		Format:   "text",
	}
}

// Load resolves the configuration. An empty path means DefaultFile if it
// exists; an explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeFile(data, &cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config file: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Luminosity < 0 {
		return fmt.Errorf("config: luminosity must not be negative, got %g", c.Luminosity)
	}
	if c.Database == "" {
		return fmt.Errorf("config: database path is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("config: format must be text or json, got %q", c.Format)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return l, nil
}
