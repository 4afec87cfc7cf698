package config

import (
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConsole(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateConsole() error {
	if c.Console.PollIntervalMS < 0 {
		return fmt.Errorf("console.poll_interval_ms must be positive, got %d", c.Console.PollIntervalMS)
	}
	switch c.Console.Color {
	case "auto", "always", "never":
		return nil
	default:
		return fmt.Errorf("console.color: unsupported value %q (expected auto, always, or never)", c.Console.Color)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
