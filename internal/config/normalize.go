package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeConsole()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScriptsDir) == "" {
		c.Paths.ScriptsDir = defaultScriptsDir
	}
	if c.Paths.ScriptsDir, err = expandPath(c.Paths.ScriptsDir); err != nil {
		return fmt.Errorf("paths.scripts_dir: %w", err)
	}
	return nil
}

// Environment variables that override [tools] entries.
const (
	EnvPython       = "STAGEHAND_PYTHON"
	EnvColmap       = "STAGEHAND_COLMAP"
	EnvGlomap       = "STAGEHAND_GLOMAP"
	EnvFastGSScript = "STAGEHAND_FASTGS_SCRIPT"
)

var toolEnv = map[string]string{
	"python":        EnvPython,
	"colmap":        EnvColmap,
	"glomap":        EnvGlomap,
	"fastgs_script": EnvFastGSScript,
}

// ToolHint names the setting that controls the [tools] entry key, including
// its environment override, for use in diagnostics.
func ToolHint(key string) string {
	if env, ok := toolEnv[key]; ok {
		return "tools." + key + " or " + env
	}
	return "tools." + key
}

func (c *Config) normalizeTools() error {
	c.Tools.Python = envOr(EnvPython, c.Tools.Python, defaultPython)
	c.Tools.Colmap = envOr(EnvColmap, c.Tools.Colmap, defaultColmap)
	c.Tools.Glomap = envOr(EnvGlomap, c.Tools.Glomap, defaultGlomap)
	c.Tools.FastGSScript = envOr(EnvFastGSScript, c.Tools.FastGSScript, defaultFastGSScript)

	var err error
	if c.Tools.FastGSScript, err = expandPath(c.Tools.FastGSScript); err != nil {
		return fmt.Errorf("tools.fastgs_script: %w", err)
	}
	return nil
}

// envOr prefers the environment override, then the configured value, then the fallback.
func envOr(key, configured, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	if trimmed := strings.TrimSpace(configured); trimmed != "" {
		return trimmed
	}
	return fallback
}

func (c *Config) normalizeConsole() {
	c.Console.Color = strings.ToLower(strings.TrimSpace(c.Console.Color))
	if c.Console.Color == "" {
		c.Console.Color = defaultColorMode
	}
	if c.Console.PollIntervalMS == 0 {
		c.Console.PollIntervalMS = defaultPollIntervalMS
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
