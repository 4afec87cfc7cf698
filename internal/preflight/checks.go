package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"stagehand/internal/config"
	"stagehand/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckDirectoryReadable verifies that the directory exists and is readable.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, ok string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}

// CheckSystemDeps evaluates the external tools referenced by the config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.Check(
		deps.Tool{
			Name:    "Python",
			Path:    cfg.Tools.Python,
			Purpose: "Required for preprocessing scripts and training",
			Setting: config.ToolHint("python"),
		},
		deps.Tool{
			Name:    "COLMAP",
			Path:    cfg.Tools.Colmap,
			Purpose: "Required for COLMAP and GLOMAP reconstruction",
			Setting: config.ToolHint("colmap"),
		},
		deps.Tool{
			Name:     "GLOMAP",
			Path:     cfg.Tools.Glomap,
			Purpose:  "Required for global structure from motion",
			Setting:  config.ToolHint("glomap"),
			Optional: true,
		},
	)
}
