package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends every line to a transcript file.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	path string
	err  error
}

// OpenFileSink creates (or truncates) the transcript at path.
func OpenFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	return &FileSink{file: file, path: path}, nil
}

// Path returns the transcript location.
func (s *FileSink) Path() string { return s.path }

// Append writes the line text. The first write error is retained and later
// writes are skipped.
func (s *FileSink) Append(line Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil || s.err != nil {
		return
	}
	if _, err := s.file.WriteString(line.Text); err != nil {
		s.err = err
	}
}

// Close flushes and closes the transcript, reporting any earlier write error.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return s.err
	}
	closeErr := s.file.Close()
	s.file = nil
	if s.err != nil {
		return s.err
	}
	return closeErr
}

// Collector keeps every line in memory.
type Collector struct {
	mu    sync.Mutex
	lines []Line
}

// Append records line.
func (c *Collector) Append(line Line) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

// Lines returns a copy of the collected lines.
func (c *Collector) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}
