package stages

import (
	"path/filepath"

	"stagehand/internal/config"
	"stagehand/internal/deps"
)

// Script names expected under the scripts directory.
const (
	ExtractFramesScript = "extract_frames.py"
	BlurFilterScript    = "blur_filter.py"
	DeduplicateScript   = "deduplicate.py"
)

// Tools locates the executables and scripts stages invoke.
type Tools struct {
	Python       string
	Colmap       string
	Glomap       string
	FastGSScript string
	ScriptsDir   string
}

// ToolsFromConfig resolves tool locations from application configuration.
func ToolsFromConfig(cfg *config.Config) Tools {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return Tools{
		Python:       cfg.Tools.Python,
		Colmap:       cfg.Tools.Colmap,
		Glomap:       cfg.Tools.Glomap,
		FastGSScript: cfg.Tools.FastGSScript,
		ScriptsDir:   cfg.Paths.ScriptsDir,
	}
}

func (t Tools) script(name string) string {
	return filepath.Join(t.ScriptsDir, name)
}

var shellTool = deps.Tool{Name: "sh", Path: "/bin/sh", Purpose: "runs multi-command stages"}

func (t Tools) python() deps.Tool {
	return deps.Tool{Name: "python", Path: t.Python, Purpose: "runs stage scripts", Setting: config.ToolHint("python")}
}

func (t Tools) colmap() deps.Tool {
	return deps.Tool{Name: "colmap", Path: t.Colmap, Purpose: "feature extraction and matching", Setting: config.ToolHint("colmap")}
}

func (t Tools) glomap() deps.Tool {
	return deps.Tool{Name: "glomap", Path: t.Glomap, Purpose: "global mapping", Setting: config.ToolHint("glomap")}
}

func (t Tools) fastGS() deps.Tool {
	return deps.Tool{Name: "FastGS train.py", Path: t.FastGSScript, Kind: deps.Script, Setting: config.ToolHint("fastgs_script")}
}

func (t Tools) scriptTool(name string) deps.Tool {
	return deps.Tool{Name: name, Path: t.script(name), Kind: deps.Script, Setting: "paths.scripts_dir"}
}
