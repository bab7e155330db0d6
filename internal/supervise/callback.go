package supervise

import (
	"fmt"
	"io"
)

// InteractionDetector supplies the tool-specific interaction semantics: how
// a prompt looks, what context to surface for it, and when the user is done
// responding. The executor and coordinator never branch on tool identity;
// they only see this interface.
type InteractionDetector interface {
	// DetectInteraction is a cheap per-line check for a prompt trigger.
	DetectInteraction(line string) bool

	// ExtractInteractionContext selects the buffered lines relevant to the
	// prompt that line just triggered. buffered is oldest-first and already
	// includes line.
	ExtractInteractionContext(line string, buffered []string) InteractionContext

	// IsInteractionComplete reports whether line, arriving after a prompt,
	// indicates the interaction resolved.
	IsInteractionComplete(line string) bool
}

// ErrorContextExtractor optionally narrows the post-mortem context to the
// tool's own error markers instead of the plain last-N-lines slice.
type ErrorContextExtractor interface {
	// ExtractErrorContext returns the buffered lines to display for a
	// failure, or nil to fall back to the default slice.
	ExtractErrorContext(buffered []string) []string
}

// Callback receives every classified line of a supervised execution. It owns
// the at-most-one-pending-interaction state machine and decides what the
// user sees. All methods are invoked from the single goroutine driving the
// output parse loop.
type Callback interface {
	// IsRequestingUserInput reports whether line is part of a user
	// interaction. While an interaction is pending every line belongs to
	// it; otherwise the tool-specific detector decides.
	IsRequestingUserInput(line string) bool

	// IsWaitingForInteraction reports whether an interaction is pending.
	IsWaitingForInteraction() bool

	// HandleInteraction consumes a line classified as interaction.
	HandleInteraction(line string)

	// OnLogLine consumes a normal output line.
	OnLogLine(line string)

	// OnProgress forwards a progress update to the display.
	OnProgress(p Progress)

	// OnExecutionError reacts to a non-zero child exit.
	OnExecutionError(retcode int)

	// ShouldParseProgress reports whether the executor should run lines
	// through the phase state machine at all.
	ShouldParseProgress() bool
}

// BufferedCallbackConfig sizes the ring buffers of a BufferedCallback.
// Zero values select the defaults.
type BufferedCallbackConfig struct {
	// BufferSize is the context ring capacity (default 200).
	BufferSize int

	// LogDisplayLines is the visible log tail length (default 2).
	LogDisplayLines int

	// ErrorDisplayLines is the post-mortem slice length (default 50).
	ErrorDisplayLines int
}

const (
	defaultContextBufferSize = 200
	defaultLogDisplayLines   = 2
	defaultErrorDisplayLines = 50
)

// BufferedCallback is the standard Callback: it keeps a large context ring
// for interaction and error extraction, a small display ring for the live
// log box, and tracks the pending-interaction state. Tool semantics are
// injected through an InteractionDetector.
//
// Both rings are mutated only by the parse-loop goroutine; no locking.
type BufferedCallback struct {
	sink     Sink
	detector InteractionDetector

	contextBuf *lineRing
	displayBuf *lineRing

	errorDisplayLines int
	waiting           bool
}

// NewBufferedCallback validates the buffer sizing and builds the callback.
// The context buffer must hold at least as many lines as either consumer
// asks back for, otherwise construction fails.
func NewBufferedCallback(sink Sink, detector InteractionDetector, cfg BufferedCallbackConfig) (*BufferedCallback, error) {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = defaultContextBufferSize
	}
	if cfg.LogDisplayLines == 0 {
		cfg.LogDisplayLines = defaultLogDisplayLines
	}
	if cfg.ErrorDisplayLines == 0 {
		cfg.ErrorDisplayLines = defaultErrorDisplayLines
	}
	if cfg.BufferSize < cfg.LogDisplayLines {
		return nil, fmt.Errorf("%w: buffer size %d smaller than log display lines %d",
			ErrInvalidConfig, cfg.BufferSize, cfg.LogDisplayLines)
	}
	if cfg.BufferSize < cfg.ErrorDisplayLines {
		return nil, fmt.Errorf("%w: buffer size %d smaller than error display lines %d",
			ErrInvalidConfig, cfg.BufferSize, cfg.ErrorDisplayLines)
	}

	return &BufferedCallback{
		sink:              sink,
		detector:          detector,
		contextBuf:        newLineRing(cfg.BufferSize),
		displayBuf:        newLineRing(cfg.LogDisplayLines),
		errorDisplayLines: cfg.ErrorDisplayLines,
	}, nil
}

// IsRequestingUserInput implements Callback.
func (c *BufferedCallback) IsRequestingUserInput(line string) bool {
	if c.waiting {
		return true
	}
	return c.detector.DetectInteraction(line)
}

// IsWaitingForInteraction implements Callback.
func (c *BufferedCallback) IsWaitingForInteraction() bool { return c.waiting }

// HandleInteraction implements Callback. The triggering line extracts the
// interaction context and opens the interaction; completion is never checked
// on that same line. Subsequent lines close the interaction as soon as the
// detector reports completion, restoring the normal log box.
func (c *BufferedCallback) HandleInteraction(line string) {
	// Interaction lines reach the context buffer but never the display
	// buffer, so the log box does not echo prompt internals.
	c.contextBuf.Append(line)

	if !c.waiting {
		ctx := c.detector.ExtractInteractionContext(line, c.contextBuf.Lines())
		c.waiting = true
		c.sink.OnInteractionStart(ctx)
		return
	}

	if c.detector.IsInteractionComplete(line) {
		c.waiting = false
		c.sink.OnInteractionEnd()
		c.sink.UpdateLogBox(c.displayBuf.Lines())
	}
}

// OnLogLine implements Callback.
func (c *BufferedCallback) OnLogLine(line string) {
	c.contextBuf.Append(line)
	c.displayBuf.Append(line)
	c.sink.UpdateLogBox(c.displayBuf.Lines())
}

// OnProgress implements Callback.
func (c *BufferedCallback) OnProgress(p Progress) { c.sink.OnProgress(p) }

// OnExecutionError implements Callback. When the detector can anchor the
// failure to a tool-specific error marker that context wins; otherwise the
// last ErrorDisplayLines lines are shown.
func (c *BufferedCallback) OnExecutionError(_ int) {
	buffered := c.contextBuf.Lines()

	if ex, ok := c.detector.(ErrorContextExtractor); ok {
		if ctx := ex.ExtractErrorContext(buffered); ctx != nil {
			c.sink.DisplayErrorContext(ctx)
			return
		}
	}

	start := len(buffered) - c.errorDisplayLines
	if start < 0 {
		start = 0
	}
	c.sink.DisplayErrorContext(buffered[start:])
}

// ShouldParseProgress implements Callback.
func (c *BufferedCallback) ShouldParseProgress() bool { return true }

// ContextLines returns a snapshot of the context ring, oldest first. Used by
// callers assembling an ExecutionError after a failed run.
func (c *BufferedCallback) ContextLines() []string { return c.contextBuf.Lines() }

// PassthroughCallback is the no-op Callback for verbose and non-interactive
// modes: it echoes lines verbatim, performs no buffering and no progress
// parsing, but keeps the tool-specific prompt detection alive so stdin
// coordination still works.
type PassthroughCallback struct {
	out      io.Writer
	detector InteractionDetector
}

// NewPassthroughCallback builds a callback that echoes to out.
func NewPassthroughCallback(out io.Writer, detector InteractionDetector) *PassthroughCallback {
	return &PassthroughCallback{out: out, detector: detector}
}

// IsRequestingUserInput implements Callback.
func (c *PassthroughCallback) IsRequestingUserInput(line string) bool {
	return c.detector.DetectInteraction(line)
}

// IsWaitingForInteraction implements Callback.
func (c *PassthroughCallback) IsWaitingForInteraction() bool { return false }

// HandleInteraction implements Callback. Prompts bypass OnLogLine, so they
// must be echoed here to stay visible; a trailing space keeps the cursor on
// the prompt line.
func (c *PassthroughCallback) HandleInteraction(line string) {
	if len(line) == 0 || line[len(line)-1] != ' ' {
		line += " "
	}
	fmt.Fprint(c.out, line)
}

// OnLogLine implements Callback.
func (c *PassthroughCallback) OnLogLine(line string) {
	fmt.Fprintln(c.out, line)
}

// OnProgress implements Callback.
func (c *PassthroughCallback) OnProgress(Progress) {}

// OnExecutionError implements Callback.
func (c *PassthroughCallback) OnExecutionError(int) {}

// ShouldParseProgress implements Callback.
func (c *PassthroughCallback) ShouldParseProgress() bool { return false }

// lineRing is a fixed-capacity ring of lines; appends past capacity drop the
// oldest entry.
type lineRing struct {
	buf  []string
	head int
	n    int
}

func newLineRing(capacity int) *lineRing {
	return &lineRing{buf: make([]string, capacity)}
}

func (r *lineRing) Append(line string) {
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = line
		r.n++
		return
	}
	r.buf[r.head] = line
	r.head = (r.head + 1) % len(r.buf)
}

// Lines returns a copy of the buffered lines, oldest first.
func (r *lineRing) Lines() []string {
	out := make([]string, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
