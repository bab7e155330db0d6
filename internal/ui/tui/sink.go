package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tfpilot/tfpilot/internal/supervise"
)

// ProgramSink adapts a running Bubble Tea program to the supervise.Sink
// interface. Every sink event becomes a typed message delivered through
// p.Send, which is safe to call from the parse-loop goroutine.
type ProgramSink struct {
	p *tea.Program
}

// NewProgramSink wires a sink to p.
func NewProgramSink(p *tea.Program) *ProgramSink {
	return &ProgramSink{p: p}
}

// OnProgress implements supervise.Sink.
func (s *ProgramSink) OnProgress(p supervise.Progress) {
	s.p.Send(ProgressMsg{Label: p.Label, Percentage: p.Percentage})
}

// OnInteractionStart implements supervise.Sink.
func (s *ProgramSink) OnInteractionStart(ctx supervise.InteractionContext) {
	s.p.Send(InteractionStartMsg{Lines: ctx.Lines})
}

// OnInteractionEnd implements supervise.Sink.
func (s *ProgramSink) OnInteractionEnd() {
	s.p.Send(InteractionEndMsg{})
}

// UpdateLogBox implements supervise.Sink.
func (s *ProgramSink) UpdateLogBox(lines []string) {
	s.p.Send(LogBoxMsg{Lines: lines})
}

// DisplayErrorContext implements supervise.Sink.
func (s *ProgramSink) DisplayErrorContext(lines []string) {
	s.p.Send(ErrorContextMsg{Lines: lines})
}
