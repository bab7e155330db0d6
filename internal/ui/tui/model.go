package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Model is the Bubble Tea model for the execution dashboard.
type Model struct {
	// Execution info
	Title   string
	Command string

	// Progress state
	Label      string
	Percentage int

	// Live log tail
	LogLines []string

	// Pending interaction
	Interacting      bool
	InteractionLines []string

	// Failure context
	ErrorLines []string

	// Animation
	SpinnerFrame int
	StartTime    time.Time

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool
}

// NewModel creates a model for one supervised command.
func NewModel(title, command string) Model {
	return Model{
		Title:     title,
		Command:   command,
		StartTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case ProgressMsg:
		// Values arrive monotonically from the executor; take them as-is.
		m.Label = msg.Label
		m.Percentage = msg.Percentage

	case InteractionStartMsg:
		m.Interacting = true
		m.InteractionLines = msg.Lines

	case InteractionEndMsg:
		m.Interacting = false
		m.InteractionLines = nil

	case LogBoxMsg:
		m.LogLines = msg.Lines

	case ErrorContextMsg:
		m.ErrorLines = msg.Lines

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
