// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Smoothing SmoothingConfig `toml:"smoothing"`
	Display   DisplayConfig   `toml:"display"`
	Log       LogConfig       `toml:"log"`
}

// SmoothingConfig maps smoothing and summary settings.
type SmoothingConfig struct {
	Sigma        *float64 `toml:"sigma"`
	Truncate     *float64 `toml:"truncate"`
	TailFraction *float64 `toml:"tail-fraction"`
}

// DisplayConfig maps chart presentation settings.
type DisplayConfig struct {
	Height         *int  `toml:"height"`
	Plain          *bool `toml:"plain"`
	ReferenceLines *bool `toml:"reference-lines"`
}

// LogConfig maps diagnostic logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
