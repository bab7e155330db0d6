package tui

import (
	"fmt"
	"io"

	"github.com/tfpilot/tfpilot/internal/supervise"
)

// ConsoleSink is the plain-text fallback for non-TTY output: one line per
// progress change, prompt context verbatim, error context verbatim. The
// live log tail is dropped; the recorded log file carries the full output.
type ConsoleSink struct {
	out       io.Writer
	lastPct   int
	lastLabel string
}

// NewConsoleSink builds a sink writing to out.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out, lastPct: -1}
}

// OnProgress implements supervise.Sink. Repeats of the same percentage and
// label are suppressed to keep piped output readable.
func (s *ConsoleSink) OnProgress(p supervise.Progress) {
	if p.Percentage == s.lastPct && p.Label == s.lastLabel {
		return
	}
	s.lastPct = p.Percentage
	s.lastLabel = p.Label
	fmt.Fprintf(s.out, "[%3d%%] %s\n", p.Percentage, p.Label)
}

// OnInteractionStart implements supervise.Sink. The last context line is the
// prompt itself; a trailing space keeps the cursor on it.
func (s *ConsoleSink) OnInteractionStart(ctx supervise.InteractionContext) {
	for i, line := range ctx.Lines {
		if i == len(ctx.Lines)-1 {
			fmt.Fprint(s.out, line+" ")
			return
		}
		fmt.Fprintln(s.out, line)
	}
}

// OnInteractionEnd implements supervise.Sink.
func (s *ConsoleSink) OnInteractionEnd() {
	fmt.Fprintln(s.out)
}

// UpdateLogBox implements supervise.Sink.
func (s *ConsoleSink) UpdateLogBox([]string) {}

// DisplayErrorContext implements supervise.Sink.
func (s *ConsoleSink) DisplayErrorContext(lines []string) {
	for _, line := range lines {
		fmt.Fprintln(s.out, line)
	}
}
