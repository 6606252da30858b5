// Package config provides configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// defaultDataDir returns the default directory for orchestrator data.
// Uses ~/.warmpool/ so data is in a fixed location regardless of CWD.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".warmpool")
}

// Config holds all configuration for the warming orchestrator.
type Config struct {
	// Paths
	StorePath     string `mapstructure:"store_path"`
	CredentialDir string `mapstructure:"credential_dir"`
	MediaDir      string `mapstructure:"media_dir"`

	// HTTP command surface
	ListenAddr string `mapstructure:"listen_addr"`

	// Network binding guard
	LookupURL            string        `mapstructure:"lookup_url"`
	ProbeTimeout         time.Duration `mapstructure:"probe_timeout"`
	BindingAllowFallback bool          `mapstructure:"binding_allow_fallback"`

	// Reconnection
	ReconnectBaseDelay time.Duration `mapstructure:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `mapstructure:"reconnect_max_delay"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		StorePath:            filepath.Join(dataDir, "warmpool.db"),
		CredentialDir:        filepath.Join(dataDir, "credentials"),
		MediaDir:             filepath.Join(dataDir, "media"),
		ListenAddr:           ":8080",
		LookupURL:            "http://ip-api.com/json",
		ProbeTimeout:         15 * time.Second,
		BindingAllowFallback: false,
		ReconnectBaseDelay:   1 * time.Second,
		ReconnectMaxDelay:    5 * time.Minute,
		LogLevel:             "info",
		LogFormat:            "json",
	}
}

// LoadConfig loads configuration from file, environment, and defaults.
// Priority: Environment > Config file > Defaults
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("store_path", defaults.StorePath)
	v.SetDefault("credential_dir", defaults.CredentialDir)
	v.SetDefault("media_dir", defaults.MediaDir)
	v.SetDefault("listen_addr", defaults.ListenAddr)
	v.SetDefault("lookup_url", defaults.LookupURL)
	v.SetDefault("probe_timeout", defaults.ProbeTimeout)
	v.SetDefault("binding_allow_fallback", defaults.BindingAllowFallback)
	v.SetDefault("reconnect_base_delay", defaults.ReconnectBaseDelay)
	v.SetDefault("reconnect_max_delay", defaults.ReconnectMaxDelay)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)

	v.SetEnvPrefix("WARMPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// A missing default config.yaml falls back to built-in defaults;
			// only fail when an explicitly provided path can't be read.
			isNotFound := errors.Is(err, os.ErrNotExist)
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotFound {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.LogFormat)
	}

	if c.LookupURL == "" {
		return fmt.Errorf("lookup URL must not be empty")
	}

	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}

	if c.ReconnectBaseDelay <= 0 {
		return fmt.Errorf("reconnect base delay must be positive")
	}

	if c.ReconnectMaxDelay <= 0 {
		return fmt.Errorf("reconnect max delay must be positive")
	}

	if c.ReconnectBaseDelay > c.ReconnectMaxDelay {
		return fmt.Errorf("reconnect base delay must be less than or equal to max delay")
	}

	return nil
}
