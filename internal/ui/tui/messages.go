// Package tui provides a Bubble Tea-based terminal UI for supervised
// executions: a progress bar fed by the phase state machine, a live log
// tail, and an interaction panel shown while the child waits on stdin.
package tui

// ProgressMsg carries a progress update from the execution.
type ProgressMsg struct {
	Label      string
	Percentage int
}

// InteractionStartMsg reports that the child is blocked on user input,
// with the buffered lines that explain what it is asking for.
type InteractionStartMsg struct {
	Lines []string
}

// InteractionEndMsg reports that the pending interaction resolved.
type InteractionEndMsg struct{}

// LogBoxMsg replaces the visible tail of the live log.
type LogBoxMsg struct {
	Lines []string
}

// ErrorContextMsg carries the lines captured before a failure.
type ErrorContextMsg struct {
	Lines []string
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the execution is complete.
type DoneMsg struct{}
