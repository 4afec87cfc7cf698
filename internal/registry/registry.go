// Package registry groups selectable stages into ranked categories.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"stagehand/internal/stage"
)

// SelectionMode is a category's selection discipline.
type SelectionMode int

const (
	// Multi allows any subset of the category's stages to be staged together.
	Multi SelectionMode = iota
	// Single allows at most one of the category's stages to be staged.
	Single
)

func (m SelectionMode) String() string {
	if m == Single {
		return "SINGLE"
	}
	return "MULTI"
}

// ErrDuplicateStage reports a stage name registered twice.
var ErrDuplicateStage = errors.New("duplicate stage name")

// Category is a named phase grouping stages. Stages keep insertion order,
// which is display order, not execution order.
type Category struct {
	Name   string
	Mode   SelectionMode
	Rank   int
	Stages []stage.Stage
}

// Registry is the catalog of categories. Stage names are unique across it.
type Registry struct {
	mu         sync.RWMutex
	categories []*Category
	byName     map[string]stage.Stage
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]stage.Stage)}
}

// Add registers a category and its stages. Nothing is registered when any
// stage name collides with an existing one.
func (r *Registry) Add(category *Category) error {
	if category == nil {
		return errors.New("nil category")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(category.Stages))
	for _, s := range category.Stages {
		key := r.key(s.Name())
		if key == "" {
			return fmt.Errorf("category %q: stage with empty name", category.Name)
		}
		if _, ok := r.byName[key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateStage, s.Name())
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateStage, s.Name())
		}
		seen[key] = struct{}{}
	}
	for _, s := range category.Stages {
		r.byName[r.key(s.Name())] = s
	}
	r.categories = append(r.categories, category)
	return nil
}

// Lookup finds a stage by name, ignoring case.
func (r *Registry) Lookup(name string) (stage.Stage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[r.key(name)]
	return s, ok
}

// CategoryOf resolves the category owning s by scanning.
func (r *Registry) CategoryOf(s stage.Stage) (*Category, bool) {
	if s == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, category := range r.categories {
		for _, member := range category.Stages {
			if member == s {
				return category, true
			}
		}
	}
	return nil, false
}

// Categories returns categories in registration order.
func (r *Registry) Categories() []*Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Category(nil), r.categories...)
}

// Stages returns every registered stage in category then display order.
func (r *Registry) Stages() []stage.Stage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []stage.Stage
	for _, category := range r.categories {
		out = append(out, category.Stages...)
	}
	return out
}

// Casers carry state, so each lookup folds with its own.
func (r *Registry) key(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
