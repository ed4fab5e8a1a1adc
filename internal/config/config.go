// Package config loads iiifnav settings from defaults, an optional config
// file and IIIFNAV_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	DefaultBaseAddress      = "iiif://viewer/#"
	DefaultManifestTemplate = "https://rosetest.library.jhu.edu/iiif-pres/{id}/manifest"
	DefaultTheme            = "default"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "pretty"
	DefaultCacheSize        = 64
	DefaultFetchTimeout     = 15 * time.Second
	DefaultMaxRetries       = 3
	DefaultInitialInterval  = 500 * time.Millisecond
)

// DefaultCollections is the data set shown when nothing else is configured.
var DefaultCollections = []string{
	"https://rosetest.library.jhu.edu/iiif-pres/aor/collection",
	"https://rosetest.library.jhu.edu/iiif-pres/rose/collection",
}

// Config holds iiifnav configuration.
type Config struct {
	BaseAddress       string      `mapstructure:"base_address" yaml:"base_address"`
	Collections       []string    `mapstructure:"collections" yaml:"collections"`
	DefaultCollection string      `mapstructure:"default_collection" yaml:"default_collection"`
	ManifestTemplate  string      `mapstructure:"manifest_template" yaml:"manifest_template"`
	Theme             string      `mapstructure:"theme" yaml:"theme"`
	CacheSize         int         `mapstructure:"cache_size" yaml:"cache_size"`
	Logging           LogConfig   `mapstructure:"logging" yaml:"logging"`
	Fetch             FetchConfig `mapstructure:"fetch" yaml:"fetch"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// FetchConfig contains resource fetching settings
type FetchConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries" yaml:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval" yaml:"initial_interval"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		BaseAddress:      DefaultBaseAddress,
		Collections:      append([]string(nil), DefaultCollections...),
		ManifestTemplate: DefaultManifestTemplate,
		Theme:            DefaultTheme,
		CacheSize:        DefaultCacheSize,
		Logging: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Fetch: FetchConfig{
			Timeout:         DefaultFetchTimeout,
			MaxRetries:      DefaultMaxRetries,
			InitialInterval: DefaultInitialInterval,
		},
	}
}

// Validate checks the configuration and fills in derived values.
func (c *Config) Validate() error {
	if len(c.Collections) == 0 {
		return fmt.Errorf("at least one collection must be configured")
	}
	if c.DefaultCollection == "" {
		c.DefaultCollection = c.Collections[0]
	}
	if !c.HasCollection(c.DefaultCollection) {
		return fmt.Errorf("default collection %q is not in the configured collections", c.DefaultCollection)
	}
	if c.ManifestTemplate != "" && !strings.Contains(c.ManifestTemplate, "{id}") {
		return fmt.Errorf("manifest template %q has no {id} placeholder", c.ManifestTemplate)
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = DefaultFetchTimeout
	}
	if c.Fetch.MaxRetries < 0 {
		c.Fetch.MaxRetries = 0
	}
	if c.Fetch.InitialInterval <= 0 {
		c.Fetch.InitialInterval = DefaultInitialInterval
	}
	switch c.Logging.Format {
	case "pretty", "json":
	default:
		c.Logging.Format = DefaultLogFormat
	}
	return nil
}

// HasCollection reports whether id is one of the configured collections.
func (c *Config) HasCollection(id string) bool {
	for _, coll := range c.Collections {
		if coll == id {
			return true
		}
	}
	return false
}

// DataDir returns the data directory for persistent storage.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "iiifnav")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			dir = filepath.Join(appData, "iiifnav")
		} else {
			dir = filepath.Join(home, ".iiifnav")
		}
	default: // Linux, BSD, etc.
		xdgData := os.Getenv("XDG_DATA_HOME")
		if xdgData != "" {
			dir = filepath.Join(xdgData, "iiifnav")
		} else {
			dir = filepath.Join(home, ".local", "share", "iiifnav")
		}
	}

	return dir, nil
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "iiifnav")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			dir = filepath.Join(appData, "iiifnav")
		} else {
			dir = filepath.Join(home, ".iiifnav")
		}
	default:
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig != "" {
			dir = filepath.Join(xdgConfig, "iiifnav")
		} else {
			dir = filepath.Join(home, ".config", "iiifnav")
		}
	}

	return dir, nil
}
