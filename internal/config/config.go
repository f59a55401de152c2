package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Host string `envconfig:"DIALECT_HOST" default:"127.0.0.1"`
	Port int    `envconfig:"DIALECT_PORT" default:"8722"`

	SettingsFile string `envconfig:"DIALECT_SETTINGS_FILE" default:""`
	AppPath      string `envconfig:"DIALECT_APP_PATH" default:"dialect"`
	RuntimeDir   string `envconfig:"DIALECT_RUNTIME_DIR" default:""`

	RequestTimeout time.Duration `envconfig:"DIALECT_REQUEST_TIMEOUT" default:"30s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("DIALECT_PORT must be between 1 and 65535")
	}
	if strings.TrimSpace(c.AppPath) == "" {
		return fmt.Errorf("DIALECT_APP_PATH is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("DIALECT_REQUEST_TIMEOUT must be positive")
	}
	return nil
}
