package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"stagehand/internal/services"
	"stagehand/internal/settings"
)

// EnvironmentError describes why the global context cannot host a run.
type EnvironmentError struct {
	Reason string
	Path   string
}

func (e *EnvironmentError) Error() string {
	return e.Reason + ": " + e.Path
}

// Unwrap classifies environment failures as validation errors.
func (e *EnvironmentError) Unwrap() error { return services.ErrValidation }

// CheckEnvironment verifies the global context before a run: the input
// directory must exist, and the output directory must either be writable or
// be creatable inside an existing, writable parent.
func CheckEnvironment(global settings.Global) error {
	input := strings.TrimSpace(global.InputDir)
	if input == "" {
		return &EnvironmentError{Reason: "Global Input Directory is not set", Path: input}
	}
	if _, err := os.Stat(input); err != nil {
		return &EnvironmentError{Reason: "Global Input Directory does not exist", Path: input}
	}

	output := strings.TrimSpace(global.OutputDir)
	if output == "" {
		return &EnvironmentError{Reason: "Global Output Directory is not set", Path: output}
	}
	if info, err := os.Stat(output); err == nil {
		if !info.IsDir() {
			return &EnvironmentError{Reason: "Global Output Directory is not a directory", Path: output}
		}
		if !writable(output) {
			return &EnvironmentError{Reason: "Global Output Directory is not writable", Path: output}
		}
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return &EnvironmentError{Reason: "Global Output Directory is not accessible", Path: output}
	}

	parent := filepath.Dir(filepath.Clean(output))
	info, err := os.Stat(parent)
	if err != nil || !info.IsDir() {
		return &EnvironmentError{Reason: "Cannot create Output Directory (Parent does not exist)", Path: parent}
	}
	if !writable(parent) {
		return &EnvironmentError{Reason: "Cannot create Output Directory (Parent not writable)", Path: parent}
	}
	return nil
}

func writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
