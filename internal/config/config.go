package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. CONVERGEDASH_HEALTH_URL.
const EnvPrefix = "CONVERGEDASH_"

// Config represents configuration data for the dashboard process.
type Config struct {
	HealthURL       string `yaml:"health_url" env:"HEALTH_URL, overwrite" validate:"required,url"`
	IntervalSeconds int    `yaml:"interval_seconds" env:"INTERVAL_SECONDS, overwrite" validate:"min=1"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" env:"TIMEOUT_SECONDS, overwrite" validate:"min=1"`
	ListenAddr      string `yaml:"listen_addr" env:"LISTEN_ADDR, overwrite" validate:"required"`
	LogLevel        string `yaml:"log_level" env:"LOG_LEVEL, overwrite" validate:"oneof=trace debug info warn warning error"`
	LogFormat       string `yaml:"log_format" env:"LOG_FORMAT, overwrite" validate:"oneof=text json"`
}

// Interval returns the poll interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout returns the per-poll timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultConfig returns the settings used when no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		HealthURL:       "http://127.0.0.1:5000",
		IntervalSeconds: 60,
		TimeoutSeconds:  15,
		ListenAddr:      ":8080",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

var validate = validator.New()

// Load reads configuration from a yaml file, applies environment overrides
// and validates the result. A missing file falls back to defaults.
func Load(path string) (Config, error) {
	return load(path, envconfig.OsLookuper())
}

func load(path string, lookuper envconfig.Lookuper) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	}); err != nil {
		return Config{}, fmt.Errorf("apply environment: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0]
			return Config{}, fmt.Errorf("invalid config: %s fails %q (value %v)", field.Field(), field.Tag(), field.Value())
		}
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
