package stages

import (
	"fmt"
	"strconv"

	"stagehand/internal/settings"
	"stagehand/internal/stage"
)

// FrameExtraction pulls frames out of every video in the input directory.
type FrameExtraction struct {
	*stage.Base
	tools Tools
}

// NewFrameExtraction constructs the frame extraction stage.
func NewFrameExtraction(name string, store *settings.Store, tools Tools) *FrameExtraction {
	return &FrameExtraction{Base: stage.NewBase(name, store), tools: tools}
}

func (s *FrameExtraction) Options() []stage.Option {
	return []stage.Option{
		{Key: "format", Default: "jpg", Help: "output image format (jpg or png)"},
		{Key: "every_n", Default: "1", Help: "keep every Nth frame"},
		{Key: "dry_run", Default: "false", Help: "simulate without writing files"},
	}
}

func (s *FrameExtraction) Validate() error {
	bag := s.Settings()
	if bag.Has("format") {
		switch bag.String("format", "") {
		case "jpg", "png":
		default:
			return s.Invalid(fmt.Sprintf("format must be jpg or png, got %q", bag.String("format", "")))
		}
	}
	if !numericOrAbsent(bag, "every_n") {
		return s.Invalid("every_n must be a number")
	}
	return nil
}

func (s *FrameExtraction) BuildCommand() ([]string, error) {
	bag := s.Settings()
	cmd := pathArgs([]string{s.tools.Python, s.tools.script(ExtractFramesScript)}, bag)
	if bag.Has("format") {
		cmd = append(cmd, "--format", bag.String("format", ""))
	}
	if n, ok := bag.Int("every_n"); ok && n > 1 {
		cmd = append(cmd, "--every_n", strconv.Itoa(n))
	}
	if bag.Bool("dry_run") {
		cmd = append(cmd, "--dry_run")
	}
	return cmd, nil
}

// BlurFilter keeps the sharpest frames by Laplacian variance.
type BlurFilter struct {
	*stage.Base
	tools Tools
}

// NewBlurFilter constructs the blur filter stage.
func NewBlurFilter(name string, store *settings.Store, tools Tools) *BlurFilter {
	return &BlurFilter{Base: stage.NewBase(name, store), tools: tools}
}

func (s *BlurFilter) Options() []stage.Option {
	return []stage.Option{
		{Key: "target_count", Default: "", Help: "keep exactly this many frames"},
		{Key: "target_percentage", Default: "", Help: "keep this share of frames (0-1, or 0-100)"},
		{Key: "groups", Default: "", Help: "split frames into N groups and keep the best of each"},
		{Key: "dry_run", Default: "false", Help: "simulate without writing files"},
	}
}

func (s *BlurFilter) Validate() error {
	bag := s.Settings()
	for _, key := range []string{"target_count", "target_percentage", "groups"} {
		if !numericOrAbsent(bag, key) {
			return s.Invalid(key + " must be a number")
		}
	}
	if pct, ok := bag.Float("target_percentage"); ok && (pct <= 0 || pct > 100) {
		return s.Invalid(fmt.Sprintf("target_percentage must be within (0, 100], got %s", formatFloat(pct)))
	}
	return nil
}

func (s *BlurFilter) BuildCommand() ([]string, error) {
	bag := s.Settings()
	cmd := pathArgs([]string{s.tools.Python, s.tools.script(BlurFilterScript)}, bag)
	if tc, ok := bag.Float("target_count"); ok && tc > 0 {
		cmd = append(cmd, "--target_count", strconv.Itoa(int(tc)))
	}
	if tp, ok := bag.Float("target_percentage"); ok {
		// Values above 1 are percentages.
		if tp > 1 {
			tp /= 100
		}
		cmd = append(cmd, "--keep_percent", formatFloat(tp))
	}
	if g, ok := bag.Float("groups"); ok && g > 0 {
		cmd = append(cmd, "--groups", strconv.Itoa(int(g)))
	}
	if bag.Bool("dry_run") {
		cmd = append(cmd, "--dry_run")
	}
	return cmd, nil
}

// DefaultMaxWorkers is passed to the deduplicate script when unset.
const DefaultMaxWorkers = 2

// Deduplicate drops near-identical frames.
type Deduplicate struct {
	*stage.Base
	tools Tools
}

// NewDeduplicate constructs the deduplicate stage.
func NewDeduplicate(name string, store *settings.Store, tools Tools) *Deduplicate {
	return &Deduplicate{Base: stage.NewBase(name, store), tools: tools}
}

func (s *Deduplicate) Options() []stage.Option {
	return []stage.Option{
		{Key: "threshold", Default: "", Help: "similarity threshold within [0, 1]"},
		{Key: "resolution", Default: "", Help: "resize width used for comparison"},
		{Key: "max_workers", Default: strconv.Itoa(DefaultMaxWorkers), Help: "parallel comparison workers"},
		{Key: "dry_run", Default: "false", Help: "simulate without writing files"},
	}
}

func (s *Deduplicate) Validate() error {
	bag := s.Settings()
	for _, key := range []string{"threshold", "resolution", "max_workers"} {
		if !numericOrAbsent(bag, key) {
			return s.Invalid(key + " must be a number")
		}
	}
	return nil
}

func (s *Deduplicate) BuildCommand() ([]string, error) {
	bag := s.Settings()
	cmd := pathArgs([]string{s.tools.Python, s.tools.script(DeduplicateScript)}, bag)
	if th, ok := bag.Float("threshold"); ok && th >= 0 && th <= 1 {
		cmd = append(cmd, "--threshold", formatFloat(th))
	}
	if res, ok := bag.Int("resolution"); ok && res > 0 {
		cmd = append(cmd, "--resize_width", strconv.Itoa(res))
	}
	if bag.Bool("dry_run") {
		cmd = append(cmd, "--dry_run")
	}
	if bag.Has("max_workers") {
		if mw, ok := bag.Int("max_workers"); ok && mw > 0 {
			cmd = append(cmd, "--max_workers", strconv.Itoa(mw))
		}
	} else {
		cmd = append(cmd, "--max_workers", strconv.Itoa(DefaultMaxWorkers))
	}
	return cmd, nil
}
