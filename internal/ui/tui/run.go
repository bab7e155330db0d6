package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tfpilot/tfpilot/internal/supervise"
)

// Run wraps a supervised execution with the TUI dashboard. fn runs in a
// background goroutine and reports through the sink it receives; its return
// value ends the program.
func Run(title, command string, fn func(sink supervise.Sink) error) error {
	m := NewModel(title, command)

	// The supervised child owns stdin for the whole run, so the program
	// must not read it. Inline rendering (no alt screen) keeps the final
	// frame, including any error context, on the terminal after exit.
	p := tea.NewProgram(m, tea.WithInput(nil))

	go func() {
		if err := fn(NewProgramSink(p)); err != nil {
			p.Send(ErrMsg{Err: err})
			return
		}
		p.Send(DoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fm := finalModel.(Model)
	return fm.Err
}
