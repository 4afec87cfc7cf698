package stage

// Stage describes the contract the sequencer needs from each unit of work.
//
// Validate must only inspect state. SetPaths is called exactly once per
// execution, immediately before BuildCommand, and must be idempotent.
// BuildCommand returns the full process invocation (executable first); the
// sequencer treats it as opaque.
type Stage interface {
	Name() string
	Validate() error
	SetPaths(input, output string)
	InputPath() string
	OutputPath() string
	BuildCommand() ([]string, error)
	Options() []Option
}

// Option documents one settings key a stage understands.
type Option struct {
	Key     string
	Default string
	Help    string
}

// Checker is implemented by stages that can report tool readiness for doctor.
type Checker interface {
	HealthCheck() Health
}
