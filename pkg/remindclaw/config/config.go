// Package config defines the remindclaw configuration file and how it is
// loaded: .env files, environment variable expansion, then YAML over the
// defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/channels/console"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/channels/discord"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/database"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/scheduler"
)

// Config is the top-level configuration.
type Config struct {
	// Name is the bot's display name, used in logs.
	Name string `yaml:"name"`

	// Prefix starts every command (default: "!").
	Prefix string `yaml:"prefix"`

	Logging   LoggingConfig    `yaml:"logging"`
	Discord   discord.Config   `yaml:"discord"`
	Console   console.Config   `yaml:"console"`
	Database  database.Config  `yaml:"database"`
	Scheduler scheduler.Config `yaml:"scheduler"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	// Level is debug, info, warn or error (default: info).
	Level string `yaml:"level"`

	// Format is "text" or "json" (default: text).
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Name:   "remindclaw",
		Prefix: "!",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Console:   console.DefaultConfig(),
		Database:  database.DefaultConfig(),
		Scheduler: scheduler.DefaultConfig(),
	}
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Prefix) == "" {
		return fmt.Errorf("config: prefix must not be empty")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown logging format %q", c.Logging.Format)
	}

	switch c.Database.Backend {
	case "", database.BackendSQLite, database.BackendPostgreSQL:
	default:
		return fmt.Errorf("config: unknown database backend %q", c.Database.Backend)
	}

	switch c.Scheduler.Order {
	case "", scheduler.RemoveThenDeliver, scheduler.DeliverThenRemove:
	default:
		return fmt.Errorf("config: unknown scheduler order %q", c.Scheduler.Order)
	}
	if c.Scheduler.Interval < 0 || c.Scheduler.DeliveryTimeout < 0 {
		return fmt.Errorf("config: scheduler durations must not be negative")
	}
	return nil
}
