package supervise

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks configuration problems detected before the
// subprocess is spawned: malformed patterns, impossible weights, or buffer
// capacities too small for the requested line counts.
var ErrInvalidConfig = errors.New("invalid supervision config")

// ExecutionError reports a supervised command that exited non-zero. The
// executor itself returns raw exit codes; callers construct an
// ExecutionError to attach the failing command, the log location, and the
// captured context lines for user-facing reporting.
type ExecutionError struct {
	// Command is the user-level operation that failed, e.g. "up" or "down".
	Command string

	// ExitCode is the raw, non-zero exit code of the child process.
	ExitCode int

	// LogFile is the path holding the full output of the run.
	LogFile string

	// Context holds the last output lines captured before the failure.
	Context []string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d (full log: %s)", e.Command, e.ExitCode, e.LogFile)
}
