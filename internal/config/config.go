// Package config loads the optional YAML defaults file for the CLI
// (spec §6's ambient configuration concern). CLI flags always override
// whatever a config file sets.
package config

import (
	"os"
	"runtime"

	"github.com/go-yaml/yaml"
)

// Config holds settings that a user would otherwise repeat on every
// invocation: tile geometry and resource limits. The fill modes ImageOps
// uses for stretch's anti-artifact border and tms_align's padding are
// fixed by spec §4.1, not user-configurable, so they have no entry here.
type Config struct {
	TileSide    int `yaml:"tile_side"`
	Concurrency int `yaml:"concurrency"`
}

// Default returns the engine's built-in defaults.
func Default() Config {
	return Config{
		TileSide:    256,
		Concurrency: runtime.NumCPU(),
	}
}

// LoadFile reads a YAML config file, overlaying it on top of Default.
// A missing path is not an error — it simply returns the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
