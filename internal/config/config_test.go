package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotEmpty(t, cfg.StorePath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://ip-api.com/json", cfg.LookupURL)
	assert.Equal(t, 15*time.Second, cfg.ProbeTimeout)
	assert.False(t, cfg.BindingAllowFallback)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("listen_addr: \":9999\"\nlog_level: debug\nbinding_allow_fallback: true\nprobe_timeout: 5s\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.BindingAllowFallback)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("WARMPOOL_LOG_LEVEL", "warn")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, false},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, false},
		{"empty lookup url", func(c *Config) { c.LookupURL = "" }, false},
		{"zero probe timeout", func(c *Config) { c.ProbeTimeout = 0 }, false},
		{"base delay above max", func(c *Config) {
			c.ReconnectBaseDelay = time.Minute
			c.ReconnectMaxDelay = time.Second
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
