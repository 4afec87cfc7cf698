package stage

import (
	"strings"

	"stagehand/internal/deps"
)

// Health lists what keeps a stage's tools from running. A stage with no
// problems is ready.
type Health struct {
	Stage    string
	Problems []string
}

// Ready reports whether the stage can be launched.
func (h Health) Ready() bool { return len(h.Problems) == 0 }

// Detail joins the problems for single-line display.
func (h Health) Detail() string { return strings.Join(h.Problems, "; ") }

// CheckTools locates tools and folds the failures into a Health record.
func CheckTools(stage string, tools ...deps.Tool) Health {
	return Health{Stage: stage, Problems: deps.Problems(deps.Check(tools...))}
}
