package workflow

import (
	"errors"
	"time"
)

// State is the sequencer's run state.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateAborted    State = "aborted"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateAborted:
		return true
	default:
		return false
	}
}

// Step status labels delivered to status listeners.
const (
	StatusPending   = "Pending"
	StatusRunning   = "Running"
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
	StatusError     = "Error"
)

var (
	// ErrNothingStaged is returned by Run when the staging list is empty.
	ErrNothingStaged = errors.New("no steps staged")
	// ErrAlreadyRunning is returned by Run while another run is active.
	ErrAlreadyRunning = errors.New("a sequence is already running")
	// ErrStepFailed marks a run ended by a failing step.
	ErrStepFailed = errors.New("step failed")
	// ErrStopped marks a run ended by Stop.
	ErrStopped = errors.New("sequence stopped")
)

// Step is the per-stage record of a run.
type Step struct {
	Index    int
	Name     string
	Status   string
	Input    string
	Output   string
	Command  []string
	ExitCode *int
	Started  time.Time
	Finished time.Time
}

// Result summarizes a finished (or never started) run.
type Result struct {
	RunID    string
	State    State
	Steps    []Step
	Err      error
	Started  time.Time
	Finished time.Time
}

// RunInfo describes a run that passed its pre-run checks.
type RunInfo struct {
	RunID     string
	InputDir  string
	OutputDir string
	Stages    []string
	Started   time.Time
}

// Observer follows a run's lifecycle. Calls are synchronous and ordered.
type Observer interface {
	RunStarted(RunInfo)
	StepChanged(runID string, step Step)
	RunFinished(Result)
}

// StatusFunc receives (stepIndex, statusLabel) whenever a step changes state.
type StatusFunc func(index int, status string)

// ProcessRunner executes one external process at a time. Start returns false
// when it rejects the request; otherwise onComplete is called exactly once.
type ProcessRunner interface {
	Start(args []string, onComplete func(int)) bool
	Stop()
}
