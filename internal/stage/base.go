package stage

import (
	"strings"
	"sync"

	"stagehand/internal/services"
	"stagehand/internal/settings"
)

// Settings keys written by SetPaths so command construction can read the
// injected paths from the bag like any other option.
const (
	KeyInputDir  = "input_dir"
	KeyOutputDir = "output_dir"
)

// Base carries the identity, settings reference, and transient paths shared by
// every concrete stage. Embed it and implement Validate/BuildCommand/Options.
type Base struct {
	name  string
	store *settings.Store

	mu     sync.RWMutex
	input  string
	output string
}

// NewBase returns a Base bound to the shared settings store.
func NewBase(name string, store *settings.Store) *Base {
	if store == nil {
		store = settings.NewStore()
	}
	return &Base{name: strings.TrimSpace(name), store: store}
}

// Name returns the stage's unique identity.
func (b *Base) Name() string { return b.name }

// Settings returns a snapshot of this stage's settings bag.
func (b *Base) Settings() settings.Bag { return b.store.Section(b.name) }

// Store exposes the shared settings store.
func (b *Base) Store() *settings.Store { return b.store }

// SetPaths records the chained input and output directories.
func (b *Base) SetPaths(input, output string) {
	b.mu.Lock()
	b.input = input
	b.output = output
	b.mu.Unlock()
	b.store.Set(b.name, KeyInputDir, input)
	b.store.Set(b.name, KeyOutputDir, output)
}

// InputPath returns the last injected input directory.
func (b *Base) InputPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.input
}

// OutputPath returns the last injected output directory.
func (b *Base) OutputPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.output
}

// Validate accepts any configuration. Concrete stages override it.
func (b *Base) Validate() error { return nil }

// Invalid builds a validation error attributed to the stage.
func (b *Base) Invalid(message string) error {
	return services.Wrap(services.ErrValidation, b.name, "validate", message, nil)
}

// PathArgs returns the injected paths, failing when SetPaths has not run.
func (b *Base) PathArgs() (string, string, error) {
	in, out := b.InputPath(), b.OutputPath()
	if in == "" || out == "" {
		return "", "", services.Wrap(services.ErrConfiguration, b.name, "build command",
			"input and output paths must be set before building a command", nil)
	}
	return in, out, nil
}
