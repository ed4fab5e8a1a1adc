package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults_Validate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultCollections[0], cfg.DefaultCollection)
	assert.Equal(t, DefaultBaseAddress, cfg.BaseAddress)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"no collections", func(c *Config) { c.Collections = nil }, true},
		{"unknown default", func(c *Config) { c.DefaultCollection = "https://x/y/z" }, true},
		{"template without placeholder", func(c *Config) { c.ManifestTemplate = "https://x/manifest" }, true},
		{"fixes cache size", func(c *Config) { c.CacheSize = -1 }, false},
		{"fixes format", func(c *Config) { c.Logging.Format = "xml" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultCacheSize, cfg.CacheSize)
			assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
base_address: "https://viewer.example.org/#/"
collections:
  - https://example.org/iiif/aor/collection
  - https://example.org/iiif/rose/collection
default_collection: https://example.org/iiif/rose/collection
manifest_template: https://example.org/iiif/{id}/manifest
theme: nord
logging:
  level: debug
fetch:
  timeout: 3s
  max_retries: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://viewer.example.org/#/", cfg.BaseAddress)
	assert.Len(t, cfg.Collections, 2)
	assert.Equal(t, "https://example.org/iiif/rose/collection", cfg.DefaultCollection)
	assert.Equal(t, "nord", cfg.Theme)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 5, cfg.Fetch.MaxRetries)
	assert.Equal(t, DefaultInitialInterval, cfg.Fetch.InitialInterval)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "theme: nord\n")
	t.Setenv("IIIFNAV_THEME", "dracula")
	t.Setenv("IIIFNAV_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dracula", cfg.Theme)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "default_collection: https://nowhere.example/x/y\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDataDir_XDG(t *testing.T) {
	if os.Getenv("HOME") == "" {
		t.Skip("no home directory")
	}
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	dir, err := DataDir()
	require.NoError(t, err)
	assert.NotEmpty(t, dir)
}
