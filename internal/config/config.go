// Package config loads the service configuration from YAML with sane
// defaults for every field left unset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// Width is the default implement width in field units, used when a
	// route request does not carry its own.
	Width float64 `yaml:"width"`

	Crops CropsConfig `yaml:"crops"`
}

// CropsConfig selects and tunes the crop oracle.
type CropsConfig struct {
	// Source is a GeoJSON file or a directory of *.geojson files. Empty
	// selects the pseudo-random oracle instead.
	Source string `yaml:"source"`

	// Watch reloads Source automatically when it changes.
	Watch bool `yaml:"watch"`

	Random RandomConfig `yaml:"random"`
}

// RandomConfig tunes the pseudo-random oracle used without a crop source.
type RandomConfig struct {
	Seed    uint64  `yaml:"seed"`
	Density float64 `yaml:"density"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen: ":8080",
		Width:  10,
		Crops: CropsConfig{
			Random: RandomConfig{Seed: 1, Density: 0.15},
		},
	}
}

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %g", c.Width)
	}
	if c.Crops.Random.Density < 0 || c.Crops.Random.Density > 1 {
		return fmt.Errorf("crops.random.density must be within [0, 1], got %g", c.Crops.Random.Density)
	}
	return nil
}
