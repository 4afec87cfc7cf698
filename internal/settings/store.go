package settings

import (
	"maps"
	"sort"
	"sync"
)

// Global is the process-wide run context.
type Global struct {
	InputDir  string `toml:"input_dir" yaml:"input_dir" json:"input_dir"`
	OutputDir string `toml:"output_dir" yaml:"output_dir" json:"output_dir"`
}

// Store maps stage names to their settings bags alongside the Global context.
// It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	global   Global
	sections map[string]map[string]any
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sections: make(map[string]map[string]any)}
}

// Global returns a copy of the global context.
func (s *Store) Global() Global {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global
}

// SetGlobal replaces the global context.
func (s *Store) SetGlobal(g Global) {
	s.mu.Lock()
	s.global = g
	s.mu.Unlock()
}

// SetInputDir updates the overall input directory.
func (s *Store) SetInputDir(dir string) {
	s.mu.Lock()
	s.global.InputDir = dir
	s.mu.Unlock()
}

// SetOutputDir updates the overall output directory.
func (s *Store) SetOutputDir(dir string) {
	s.mu.Lock()
	s.global.OutputDir = dir
	s.mu.Unlock()
}

// Section returns a snapshot of the named stage's bag, creating an empty bag
// on first access.
func (s *Store) Section(name string) Bag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Bag(maps.Clone(s.sectionLocked(name)))
}

// Get reads a single key from the named stage's bag.
func (s *Store) Get(name, key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.sectionLocked(name)[key]
	return value, ok
}

// Set stores value under key in the named stage's bag.
func (s *Store) Set(name, key string, value any) {
	s.mu.Lock()
	s.sectionLocked(name)[key] = value
	s.mu.Unlock()
}

// Delete removes key from the named stage's bag.
func (s *Store) Delete(name, key string) {
	s.mu.Lock()
	delete(s.sectionLocked(name), key)
	s.mu.Unlock()
}

// SectionNames lists the stages that currently own a bag, sorted.
func (s *Store) SectionNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.sections))
	for name := range s.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sections returns a deep-enough copy of every bag for persistence.
func (s *Store) Sections() map[string]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]any, len(s.sections))
	for name, bag := range s.sections {
		out[name] = maps.Clone(bag)
	}
	return out
}

func (s *Store) sectionLocked(name string) map[string]any {
	if s.sections == nil {
		s.sections = make(map[string]map[string]any)
	}
	bag, ok := s.sections[name]
	if !ok {
		bag = make(map[string]any)
		s.sections[name] = bag
	}
	return bag
}
