// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Dashboard DashboardConfig `toml:"dashboard"`
	Chart     ChartConfig     `toml:"chart"`
	Log       LogConfig       `toml:"log"`
}

// DashboardConfig maps the initial filter and query settings.
type DashboardConfig struct {
	From        *int    `toml:"from"`
	To          *int    `toml:"to"`
	Metric      *string `toml:"metric"`
	Demographic *string `toml:"demographic"`
	State       *string `toml:"state"`
	Latency     *string `toml:"latency"`
}

// ChartConfig maps chart export dimensions.
type ChartConfig struct {
	Width  *int `toml:"width"`
	Height *int `toml:"height"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
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
