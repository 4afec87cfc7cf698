package staging

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"stagehand/internal/registry"
	"stagehand/internal/stage"
)

var (
	// ErrFrozen reports a mutation attempted while a run holds the list.
	ErrFrozen = errors.New("staging list is frozen while a run is active")
	// ErrOutOfBounds reports a move whose source or target index is outside the list.
	ErrOutOfBounds = errors.New("move target out of bounds")
	// ErrCrossCategory reports a move across a category boundary.
	ErrCrossCategory = errors.New("cannot reorder stages across categories")
	// ErrUnknownStage reports a stage that is not part of the registry.
	ErrUnknownStage = errors.New("stage is not registered")
)

// Listener is notified after every successful mutation. It receives no
// payload; listeners re-read the list.
type Listener func()

// List is the ordered staging list. It is safe for concurrent use.
type List struct {
	reg *registry.Registry

	mu        sync.Mutex
	items     []stage.Stage
	frozen    int
	listeners []Listener
}

// NewList creates an empty list over reg.
func NewList(reg *registry.Registry) *List {
	return &List{reg: reg}
}

// AddListener registers fn. Listeners run synchronously in registration order.
func (l *List) AddListener(fn Listener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

// Toggle activates or deactivates s.
//
// Activating a staged stage leaves the list unchanged, but listeners are
// still notified, as they are for every accepted toggle. Activating a stage
// of a single-select category first evicts the category's other stages.
// After an insert the list is stably re-sorted by category rank so stages of
// equal rank keep their relative order.
func (l *List) Toggle(s stage.Stage, active bool) error {
	category, ok := l.reg.CategoryOf(s)
	if !ok {
		name := "<nil>"
		if s != nil {
			name = s.Name()
		}
		return fmt.Errorf("%w: %s", ErrUnknownStage, name)
	}

	l.mu.Lock()
	if l.frozen > 0 {
		l.mu.Unlock()
		return ErrFrozen
	}
	if active {
		l.activateLocked(s, category)
	} else {
		l.items = slices.DeleteFunc(l.items, func(item stage.Stage) bool { return item == s })
	}
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()

	notify(listeners)
	return nil
}

func (l *List) activateLocked(s stage.Stage, category *registry.Category) {
	if slices.Contains(l.items, s) {
		return
	}
	if category.Mode == registry.Single {
		l.items = slices.DeleteFunc(l.items, func(item stage.Stage) bool {
			return slices.Contains(category.Stages, item)
		})
	}
	l.items = append(l.items, s)
	slices.SortStableFunc(l.items, func(a, b stage.Stage) int {
		return cmp.Compare(l.rank(a), l.rank(b))
	})
}

// Move swaps the stage at index with its neighbour in direction (-1 or +1).
// The list is unchanged when the neighbour is out of bounds or belongs to a
// different category.
func (l *List) Move(index, direction int) error {
	if direction != -1 && direction != 1 {
		return fmt.Errorf("invalid move direction %d", direction)
	}

	l.mu.Lock()
	if l.frozen > 0 {
		l.mu.Unlock()
		return ErrFrozen
	}
	target := index + direction
	if index < 0 || index >= len(l.items) || target < 0 || target >= len(l.items) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %d -> %d (len %d)", ErrOutOfBounds, index, target, len(l.items))
	}
	a, _ := l.reg.CategoryOf(l.items[index])
	b, _ := l.reg.CategoryOf(l.items[target])
	if a != b {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s and %s", ErrCrossCategory, l.items[index].Name(), l.items[target].Name())
	}
	l.items[index], l.items[target] = l.items[target], l.items[index]
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()

	notify(listeners)
	return nil
}

// ValidateOrder reports whether adjacent stages are in non-decreasing rank order.
func (l *List) ValidateOrder() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 1; i < len(l.items); i++ {
		if l.rank(l.items[i-1]) > l.rank(l.items[i]) {
			return false
		}
	}
	return true
}

// Stages returns a copy of the list in execution order.
func (l *List) Stages() []stage.Stage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Names returns the staged stage names in execution order.
func (l *List) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.items))
	for i, s := range l.items {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of staged stages.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Contains reports whether s is staged.
func (l *List) Contains(s stage.Stage) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.items, s)
}

// Freeze blocks mutation until the returned release function is called.
// Release is safe to call more than once.
func (l *List) Freeze() (release func()) {
	l.mu.Lock()
	l.frozen++
	l.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.frozen--
			l.mu.Unlock()
		})
	}
}

// Frozen reports whether a run currently holds the list.
func (l *List) Frozen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frozen > 0
}

func (l *List) rank(s stage.Stage) int {
	category, ok := l.reg.CategoryOf(s)
	if !ok {
		return 0
	}
	return category.Rank
}

func notify(listeners []Listener) {
	for _, fn := range listeners {
		fn()
	}
}
