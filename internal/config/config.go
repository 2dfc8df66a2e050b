// Package config loads the expense bot configuration.
package config

import (
	"fmt"

	coreconfig "github.com/m3rciful/expensebot/core/config"
	coredatabase "github.com/m3rciful/expensebot/core/database"
	"github.com/m3rciful/expensebot/internal/events"
)

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Events   events.Config       `yaml:"events"`
}

// CoreConfig exposes the framework part of the configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads .env, the YAML file at path and the environment, then validates
// and fills defaults.
func Load(path string) (*Config, error) {
	if err := coreconfig.LoadDotEnv(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Events.Normalize(); err != nil {
		return err
	}
	return nil
}
