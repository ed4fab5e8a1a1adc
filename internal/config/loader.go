package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (IIIFNAV_THEME, ...).
const EnvPrefix = "IIIFNAV"

// Load reads configuration from path (or config.yaml in ConfigDir and the
// working directory when path is empty), the environment and defaults.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithViper(path)
	return cfg, err
}

// LoadWithViper loads configuration and returns the viper instance so
// command-line flags can be bound to it.
func LoadWithViper(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// FromViper rebuilds the configuration after flags were bound to v.
func FromViper(v *viper.Viper) (*Config, error) {
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("base_address", d.BaseAddress)
	v.SetDefault("collections", d.Collections)
	v.SetDefault("default_collection", "")
	v.SetDefault("manifest_template", d.ManifestTemplate)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("cache_size", d.CacheSize)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.max_retries", d.Fetch.MaxRetries)
	v.SetDefault("fetch.initial_interval", d.Fetch.InitialInterval)
}
