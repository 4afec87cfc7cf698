package stages

import (
	"fmt"
	"slices"
	"strings"

	"stagehand/internal/deps"
	"stagehand/internal/settings"
	"stagehand/internal/stage"
)

var colmapQualities = []string{"low", "medium", "high", "extreme"}

// Colmap runs COLMAP's automatic reconstructor over the input images.
type Colmap struct {
	*stage.Base
	tools Tools
}

// NewColmap constructs the COLMAP reconstruction stage.
func NewColmap(name string, store *settings.Store, tools Tools) *Colmap {
	return &Colmap{Base: stage.NewBase(name, store), tools: tools}
}

func (s *Colmap) Options() []stage.Option {
	return []stage.Option{
		{Key: "camera_model", Default: "PINHOLE", Help: "COLMAP camera model"},
		{Key: "quality", Default: "high", Help: "low, medium, high, or extreme"},
		{Key: "single_camera", Default: "true", Help: "share intrinsics across all images"},
		{Key: "dense", Default: "false", Help: "also run dense reconstruction"},
		{Key: "use_gpu", Default: "true", Help: "use GPU feature extraction and matching"},
	}
}

func (s *Colmap) Validate() error {
	bag := s.Settings()
	quality := strings.ToLower(bag.String("quality", "high"))
	if !slices.Contains(colmapQualities, quality) {
		return s.Invalid(fmt.Sprintf("quality must be one of %s, got %q", strings.Join(colmapQualities, ", "), quality))
	}
	if strings.TrimSpace(bag.String("camera_model", "PINHOLE")) == "" {
		return s.Invalid("camera_model must not be empty")
	}
	return nil
}

func (s *Colmap) BuildCommand() ([]string, error) {
	in, out, err := s.PathArgs()
	if err != nil {
		return nil, err
	}
	bag := s.Settings()
	cmd := []string{
		s.tools.Colmap, "automatic_reconstructor",
		"--workspace_path", out,
		"--image_path", in,
		"--camera_model", bag.String("camera_model", "PINHOLE"),
		"--quality", strings.ToLower(bag.String("quality", "high")),
		"--single_camera", flag(boolDefault(bag, "single_camera", true)),
		"--dense", flag(bag.Bool("dense")),
		"--use_gpu", flag(boolDefault(bag, "use_gpu", true)),
	}
	return cmd, nil
}

// Command runs an argument template. Placeholders of the form {key} are
// replaced with values from the stage's settings bag, falling back to the
// template defaults; {input_dir} and {output_dir} carry the chained paths.
// The "command" setting (whitespace separated) or the "args" list replaces
// the template entirely.
type Command struct {
	*stage.Base
	template []string
	defaults map[string]string
	requires []deps.Tool
	help     []stage.Option
}

// NewCommand constructs a template-driven stage. requires lists the tools
// doctor should look for.
func NewCommand(name string, store *settings.Store, template []string, defaults map[string]string, requires ...deps.Tool) *Command {
	return &Command{
		Base:     stage.NewBase(name, store),
		template: slices.Clone(template),
		defaults: defaults,
		requires: requires,
	}
}

// WithOptions attaches option descriptors for additional placeholders.
func (s *Command) WithOptions(options ...stage.Option) *Command {
	s.help = append(s.help, options...)
	return s
}

func (s *Command) Options() []stage.Option {
	opts := []stage.Option{
		{Key: "command", Default: "", Help: "replace the command line (whitespace separated, supports {placeholders})"},
	}
	return append(opts, s.help...)
}

func (s *Command) Validate() error {
	if len(s.args(s.Settings())) == 0 {
		return s.Invalid("no command configured")
	}
	return nil
}

func (s *Command) BuildCommand() ([]string, error) {
	bag := s.Settings()
	args := s.args(bag)
	if len(args) == 0 {
		return nil, s.Invalid("no command configured")
	}
	pairs := make([]string, 0, 2*(len(bag)+len(s.defaults)))
	for key, value := range s.defaults {
		if !bag.Has(key) {
			pairs = append(pairs, "{"+key+"}", value)
		}
	}
	for key := range bag {
		pairs = append(pairs, "{"+key+"}", bag.String(key, ""))
	}
	replacer := strings.NewReplacer(pairs...)
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = replacer.Replace(arg)
	}
	return out, nil
}

func (s *Command) args(bag settings.Bag) []string {
	if list := bag.Strings("args"); len(list) > 0 {
		return list
	}
	if line := bag.String("command", ""); line != "" {
		return strings.Fields(line)
	}
	return slices.Clone(s.template)
}

// glomapScript runs feature extraction and matching with COLMAP and then the
// GLOMAP global mapper, all inside one process so the stage has a single
// exit status.
const glomapScript = `set -e
in="$1"; out="$2"; colmap="$3"; glomap="$4"; model="$5"
mkdir -p "$out/sparse"
"$colmap" feature_extractor --database_path "$out/database.db" --image_path "$in" --ImageReader.camera_model "$model" --ImageReader.single_camera 1
"$colmap" exhaustive_matcher --database_path "$out/database.db"
"$glomap" mapper --database_path "$out/database.db" --image_path "$in" --output_path "$out/sparse"
`

// NewGlomap constructs the global structure-from-motion stage.
func NewGlomap(name string, store *settings.Store, tools Tools) *Command {
	template := []string{
		"/bin/sh", "-c", glomapScript, "glomap",
		"{" + stage.KeyInputDir + "}", "{" + stage.KeyOutputDir + "}",
		tools.Colmap, tools.Glomap, "{camera_model}",
	}
	defaults := map[string]string{"camera_model": "PINHOLE"}
	return NewCommand(name, store, template, defaults, shellTool, tools.colmap(), tools.glomap()).
		WithOptions(stage.Option{Key: "camera_model", Default: "PINHOLE", Help: "COLMAP camera model for feature extraction"})
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func boolDefault(bag settings.Bag, key string, fallback bool) bool {
	if !bag.Has(key) {
		return fallback
	}
	return bag.Bool(key)
}
