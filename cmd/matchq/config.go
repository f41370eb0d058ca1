package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "MATCHQ_"

// Config is the matchq configuration. Values come from defaults, an optional
// config file and MATCHQ_ environment variables, in increasing priority.
// Command line flags override all of them.
type Config struct {
	Workers int       `mapstructure:"workers"`
	Log     LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`  // DEBUG, INFO, WARN, ERROR
	Format    string `mapstructure:"format"` // json, text
	AddSource bool   `mapstructure:"add_source"`
}

// LoadConfig reads path when it is not empty. MATCHQ_LOG_LEVEL maps to
// log.level and so on.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("workers", 4)
	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "unable to read config file %s", path)
		}
	}

	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], envPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(pair[0], envPrefix))
		v.Set(envKey(key), pair[1])
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	if cfg.Workers < 1 {
		return Config{}, errors.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	return cfg, nil
}

// envKey turns "log_add_source" into "log.add_source": the first underscore
// separates the section, the rest belong to the key.
func envKey(key string) string {
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + rest
}
