package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Dashboard.From != nil || cfg.Log.Level != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[dashboard]
from = 2000
metric = "case-rate"
state = "Colorado"
latency = "0s"

[chart]
width = 800

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Dashboard.From == nil || *cfg.Dashboard.From != 2000 {
		t.Fatalf("unexpected from %v", cfg.Dashboard.From)
	}
	if cfg.Dashboard.To != nil {
		t.Fatalf("expected unset to")
	}
	if cfg.Dashboard.Metric == nil || *cfg.Dashboard.Metric != "case-rate" {
		t.Fatalf("unexpected metric %v", cfg.Dashboard.Metric)
	}
	if cfg.Chart.Width == nil || *cfg.Chart.Width != 800 || cfg.Chart.Height != nil {
		t.Fatalf("unexpected chart config %+v", cfg.Chart)
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level %v", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[dashboard]\nyear = 2000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "hpsdash", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/tmp/state", "hpsdash", "hpsdash.log") {
		t.Fatalf("unexpected log path %s", got)
	}
	if got := DefaultExportDir(); got != filepath.Join("/tmp/data", "hpsdash", "exports") {
		t.Fatalf("unexpected export dir %s", got)
	}
}
