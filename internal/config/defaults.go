package config

const (
	defaultStateDir         = "~/.local/share/stagehand"
	defaultLogDir           = "~/.local/share/stagehand/logs"
	defaultScriptsDir       = "~/.local/share/stagehand/scripts"
	defaultPython           = "python3"
	defaultColmap           = "colmap"
	defaultGlomap           = "glomap"
	defaultFastGSScript     = "~/.local/share/stagehand/scripts/FastGS/train.py"
	defaultPollIntervalMS   = 100
	defaultColorMode        = "auto"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			ScriptsDir: defaultScriptsDir,
		},
		Tools: Tools{
			Python:       defaultPython,
			Colmap:       defaultColmap,
			Glomap:       defaultGlomap,
			FastGSScript: defaultFastGSScript,
		},
		Console: Console{
			PollIntervalMS: defaultPollIntervalMS,
			Color:          defaultColorMode,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
