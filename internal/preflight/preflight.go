package preflight

import (
	"stagehand/internal/config"
	"stagehand/internal/settings"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config and, when the
// global context is set, the run environment check.
func RunAll(cfg *config.Config, global settings.Global) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryReadable("Scripts directory", cfg.Paths.ScriptsDir),
	}

	if global.InputDir != "" || global.OutputDir != "" {
		env := Result{Name: "Run environment", Passed: true, Detail: global.InputDir + " -> " + global.OutputDir}
		if err := CheckEnvironment(global); err != nil {
			env = Result{Name: "Run environment", Detail: err.Error()}
		}
		results = append(results, env)
	}
	return results
}
