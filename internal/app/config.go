package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the application configuration, loaded from a TOML file.
type Config struct {
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `toml:"log_level"`

	// Plugins configures the plugin subsystem.
	Plugins PluginsConfig `toml:"plugins"`
}

// PluginsConfig configures plugin discovery and lifecycle behavior.
type PluginsConfig struct {
	// Dir is the installed-plugin root directory.
	Dir string `toml:"dir"`

	// KeepVersions is how many versions per plugin survive pruning.
	KeepVersions int `toml:"keep_versions"`

	// ThrottleMs is the minimum interval between command-queue drains.
	ThrottleMs int `toml:"throttle_ms"`

	// DefaultBackground lists background plugins enabled by default,
	// whose init signal is deferred until selection.
	DefaultBackground []string `toml:"default_background"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Plugins: PluginsConfig{
			Dir:          defaultPluginDir(),
			KeepVersions: 2,
			ThrottleMs:   100,
		},
	}
}

// LoadConfig reads the configuration file at path, merged over the
// defaults. A missing file is not an error; the defaults apply. An empty
// path loads the default location.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = defaultConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if cfg.Plugins.KeepVersions < 1 {
		cfg.Plugins.KeepVersions = 1
	}
	return cfg, nil
}

func defaultConfigPath() string {
	return filepath.Join(configHome(), "periscope", "periscope.toml")
}

func defaultPluginDir() string {
	return filepath.Join(configHome(), "periscope", "plugins")
}

func configHome() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
