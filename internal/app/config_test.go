package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Plugins.Dir == "" {
		t.Error("default plugin dir is empty")
	}
	if cfg.Plugins.KeepVersions != 2 {
		t.Errorf("KeepVersions = %d, want 2", cfg.Plugins.KeepVersions)
	}
	if cfg.Plugins.ThrottleMs != 100 {
		t.Errorf("ThrottleMs = %d, want 100", cfg.Plugins.ThrottleMs)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("missing file did not fall back to defaults: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "periscope.toml")
	content := `
log_level = "debug"

[plugins]
dir = "/opt/periscope/plugins"
keep_versions = 5
throttle_ms = 250
default_background = ["crash-reporter"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Plugins.Dir != "/opt/periscope/plugins" {
		t.Errorf("Plugins.Dir = %q", cfg.Plugins.Dir)
	}
	if cfg.Plugins.KeepVersions != 5 {
		t.Errorf("KeepVersions = %d, want 5", cfg.Plugins.KeepVersions)
	}
	if cfg.Plugins.ThrottleMs != 250 {
		t.Errorf("ThrottleMs = %d, want 250", cfg.Plugins.ThrottleMs)
	}
	if len(cfg.Plugins.DefaultBackground) != 1 || cfg.Plugins.DefaultBackground[0] != "crash-reporter" {
		t.Errorf("DefaultBackground = %q", cfg.Plugins.DefaultBackground)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "periscope.toml")
	if err := os.WriteFile(path, []byte("log_level = ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() accepted invalid TOML")
	}
}

func TestLoadConfigClampsKeepVersions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "periscope.toml")
	if err := os.WriteFile(path, []byte("[plugins]\nkeep_versions = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Plugins.KeepVersions != 1 {
		t.Errorf("KeepVersions = %d, want 1", cfg.Plugins.KeepVersions)
	}
}
