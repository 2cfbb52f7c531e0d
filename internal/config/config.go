// Package config loads the proxmoxctl user configuration.
package config

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config represents the proxmoxctl configuration loaded from
// ~/.proxmoxctl/config.yaml, falling back to defaults when no file exists.
type Config struct {
	Manifest string   `mapstructure:"manifest"`
	Defaults Defaults `mapstructure:"defaults"`
}

// Defaults contains fallback values for maintenance runs started without
// explicit flags.
type Defaults struct {
	User        string `mapstructure:"user"`
	GuestUser   string `mapstructure:"guest_user"`
	MaxParallel int    `mapstructure:"max_parallel"`
}

// Load loads the configuration from ~/.proxmoxctl/config.yaml or returns
// defaults.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(home, ".proxmoxctl")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	setDefaults()

	// A missing config file is fine; anything else is a real error.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Manifest = expandPath(cfg.Manifest)
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("manifest", "proxmox-hosts.toml")
	viper.SetDefault("defaults.user", "root")
	viper.SetDefault("defaults.guest_user", "root")
	viper.SetDefault("defaults.max_parallel", 2)
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
