// Package deps locates the external executables and scripts that stage
// commands invoke and explains how to configure the ones it cannot find.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Kind says how a tool is located.
type Kind int

const (
	// Executable tools are resolved through PATH (or used as given when the
	// path contains a separator).
	Executable Kind = iota
	// Script tools are files handed to an interpreter and must exist as-is.
	Script
)

// Tool is an external executable or script that stage commands invoke.
type Tool struct {
	Name    string
	Path    string
	Kind    Kind
	Purpose string
	// Setting names where the path is configured, e.g. "tools.colmap or
	// STAGEHAND_COLMAP". It is echoed in failure details.
	Setting  string
	Optional bool
}

// Status reports whether a tool could be located.
type Status struct {
	Tool
	Resolved  string
	Available bool
	Detail    string
}

// Check locates every tool and reports the outcome in order.
func Check(tools ...Tool) []Status {
	results := make([]Status, 0, len(tools))
	for _, tool := range tools {
		tool.Path = strings.TrimSpace(tool.Path)
		results = append(results, check(tool))
	}
	return results
}

func check(tool Tool) Status {
	status := Status{Tool: tool}
	if tool.Path == "" {
		status.Detail = withSetting("not configured", tool.Setting)
		return status
	}
	switch tool.Kind {
	case Script:
		info, err := os.Stat(tool.Path)
		if err != nil || info.IsDir() {
			status.Detail = withSetting(fmt.Sprintf("script %q not found", tool.Path), tool.Setting)
			return status
		}
		status.Resolved = tool.Path
	default:
		resolved, err := exec.LookPath(tool.Path)
		if err != nil {
			status.Detail = withSetting(fmt.Sprintf("%q not found on PATH", tool.Path), tool.Setting)
			return status
		}
		status.Resolved = resolved
	}
	status.Available = true
	return status
}

// Problems returns the details of every unavailable, required tool.
func Problems(statuses []Status) []string {
	var problems []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			problems = append(problems, status.Detail)
		}
	}
	return problems
}

func withSetting(detail, setting string) string {
	if setting == "" {
		return detail
	}
	return detail + " (set " + setting + ")"
}
