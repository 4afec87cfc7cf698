package output

import (
	"strings"
	"time"
)

// Kind classifies a line by its conventional prefix.
type Kind int

const (
	// KindProcess is raw output from an external process.
	KindProcess Kind = iota
	// KindSystem is executor lifecycle text ("[System]:").
	KindSystem
	// KindManager is sequencer lifecycle text ("[Manager]:").
	KindManager
	// KindManagerError is a sequencer failure ("[Manager Error]:").
	KindManagerError
	// KindManagerWarning is an advisory sequencer notice ("[Manager WARNING]:").
	KindManagerWarning
)

// Prefixes used by engine-generated lines.
const (
	PrefixSystem         = "[System]:"
	PrefixManager        = "[Manager]:"
	PrefixManagerError   = "[Manager Error]:"
	PrefixManagerWarning = "[Manager WARNING]:"
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindManager:
		return "manager"
	case KindManagerError:
		return "manager_error"
	case KindManagerWarning:
		return "manager_warning"
	default:
		return "process"
	}
}

// Line is one published text line.
type Line struct {
	Seq  uint64
	Time time.Time
	Text string
	Kind Kind
}

// Classify maps text to a Kind using the prefix convention. Nothing enforces
// the convention; text without a known prefix is process output.
func Classify(text string) Kind {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	switch {
	case strings.HasPrefix(trimmed, PrefixSystem):
		return KindSystem
	case strings.HasPrefix(trimmed, PrefixManagerError):
		return KindManagerError
	case strings.HasPrefix(trimmed, PrefixManagerWarning):
		return KindManagerWarning
	case strings.HasPrefix(trimmed, PrefixManager):
		return KindManager
	default:
		return KindProcess
	}
}
