package history

import "time"

// Run is a persisted sequencer run.
type Run struct {
	ID        string
	State     string
	InputDir  string
	OutputDir string
	Stages    []string
	Error     string
	Started   time.Time
	Finished  *time.Time
}

// Step is a persisted step of a run.
type Step struct {
	RunID    string
	Index    int
	Name     string
	Status   string
	Input    string
	Output   string
	Command  string
	ExitCode *int
	Started  *time.Time
	Finished *time.Time
}
