package stages

import (
	"fmt"
	"strings"

	"stagehand/internal/settings"
	"stagehand/internal/stage"
)

// FastGS trains a Gaussian splatting model from a reconstructed scene.
type FastGS struct {
	*stage.Base
	tools Tools
}

// NewFastGS constructs the training stage.
func NewFastGS(name string, store *settings.Store, tools Tools) *FastGS {
	return &FastGS{Base: stage.NewBase(name, store), tools: tools}
}

func (s *FastGS) Options() []stage.Option {
	return []stage.Option{
		{Key: "quality", Default: "standard", Help: "standard (4x downscale) or high (full resolution)"},
	}
}

func (s *FastGS) Validate() error {
	if strings.TrimSpace(s.tools.FastGSScript) == "" {
		return s.Invalid("tools.fastgs_script is not configured")
	}
	switch quality := s.quality(); quality {
	case "standard", "high":
		return nil
	default:
		return s.Invalid(fmt.Sprintf("quality must be standard or high, got %q", quality))
	}
}

func (s *FastGS) BuildCommand() ([]string, error) {
	in, out, err := s.PathArgs()
	if err != nil {
		return nil, err
	}
	cmd := []string{s.tools.Python, s.tools.FastGSScript, "-s", in, "-m", out, "--quiet"}
	if s.quality() == "high" {
		cmd = append(cmd, "-r", "1", "--loss_thresh", "0.0001")
	} else {
		cmd = append(cmd, "-r", "4", "--loss_thresh", "0.0005")
	}
	return cmd, nil
}

func (s *FastGS) quality() string {
	return strings.ToLower(s.Settings().String("quality", "standard"))
}
