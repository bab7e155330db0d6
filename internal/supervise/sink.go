package supervise

// Progress is a single progress update emitted during execution.
type Progress struct {
	// Label describes the current execution state, e.g. "Creating infrastructure".
	Label string

	// Percentage is the overall progress (0-100). Within one command the
	// emitted values are monotonically non-decreasing and capped at 100.
	Percentage int
}

// InteractionContext carries the buffered lines relevant to a detected
// prompt, in output order, ending with the prompt line itself.
type InteractionContext struct {
	Lines []string
}

// Sink receives display events during a supervised execution. Implementations
// are pure consumers: they must not block for long and must not panic, since
// they are invoked synchronously from the output read loop.
type Sink interface {
	// OnProgress reports a new progress value.
	OnProgress(p Progress)

	// OnInteractionStart signals that the child is blocked on user input.
	OnInteractionStart(ctx InteractionContext)

	// OnInteractionEnd signals that the pending interaction resolved.
	OnInteractionEnd()

	// UpdateLogBox replaces the visible tail of the live log.
	UpdateLogBox(lines []string)

	// DisplayErrorContext shows the lines captured before a failure.
	DisplayErrorContext(lines []string)
}
