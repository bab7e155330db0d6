package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tfpilot/tfpilot/internal/supervise"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m30s"},
		{3600 * time.Second, "1h0m"},
		{3661 * time.Second, "1h1m"},
	}
	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModelUpdate_Progress(t *testing.T) {
	m := NewModel("myproject", "terraform apply")

	m, _ = update(t, m, ProgressMsg{Label: "Mutating resources", Percentage: 42})

	if m.Percentage != 42 {
		t.Errorf("expected percentage 42, got %d", m.Percentage)
	}
	if m.Label != "Mutating resources" {
		t.Errorf("unexpected label %q", m.Label)
	}
}

func TestModelUpdate_InteractionLifecycle(t *testing.T) {
	m := NewModel("myproject", "terraform apply")

	m, _ = update(t, m, InteractionStartMsg{Lines: []string{"var.region", "Enter a value:"}})
	if !m.Interacting {
		t.Fatal("expected interaction to be pending")
	}
	if len(m.InteractionLines) != 2 {
		t.Fatalf("expected 2 interaction lines, got %d", len(m.InteractionLines))
	}

	m, _ = update(t, m, InteractionEndMsg{})
	if m.Interacting {
		t.Error("expected interaction to be resolved")
	}
	if m.InteractionLines != nil {
		t.Error("expected interaction lines to be cleared")
	}
}

func TestModelUpdate_LogBoxReplacesTail(t *testing.T) {
	m := NewModel("myproject", "terraform plan")

	m, _ = update(t, m, LogBoxMsg{Lines: []string{"a", "b"}})
	m, _ = update(t, m, LogBoxMsg{Lines: []string{"b", "c"}})

	if len(m.LogLines) != 2 || m.LogLines[0] != "b" || m.LogLines[1] != "c" {
		t.Errorf("unexpected log lines %v", m.LogLines)
	}
}

func TestModelUpdate_ErrQuits(t *testing.T) {
	m := NewModel("myproject", "terraform apply")

	m, cmd := update(t, m, ErrMsg{Err: errTest})
	if m.Err == nil {
		t.Error("expected error to be recorded")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestModelUpdate_DoneQuits(t *testing.T) {
	m := NewModel("myproject", "terraform apply")

	m, cmd := update(t, m, DoneMsg{})
	if !m.Done {
		t.Error("expected done")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestModelUpdate_TickAdvancesSpinner(t *testing.T) {
	m := NewModel("myproject", "terraform apply")

	m, cmd := update(t, m, TickMsg{})
	if m.SpinnerFrame != 1 {
		t.Errorf("expected spinner frame 1, got %d", m.SpinnerFrame)
	}
	if cmd == nil {
		t.Error("expected re-tick command")
	}
}

func TestView_ShowsLogBoxWhenIdle(t *testing.T) {
	m := NewModel("myproject", "terraform plan")
	m.LogLines = []string{"Refreshing state..."}

	view := m.View()
	if !strings.Contains(view, "Output") {
		t.Error("expected output section")
	}
	if !strings.Contains(view, "Refreshing state...") {
		t.Error("expected log line in view")
	}
}

func TestView_InteractionPanelReplacesLogBox(t *testing.T) {
	m := NewModel("myproject", "terraform apply")
	m.LogLines = []string{"should be hidden"}
	m.Interacting = true
	m.InteractionLines = []string{"var.region", "Enter a value:"}

	view := m.View()
	if !strings.Contains(view, "Input needed") {
		t.Error("expected interaction section")
	}
	if !strings.Contains(view, "Enter a value:") {
		t.Error("expected prompt line in view")
	}
	if strings.Contains(view, "should be hidden") {
		t.Error("log tail must be hidden while input is pending")
	}
}

func TestView_ErrorContext(t *testing.T) {
	m := NewModel("myproject", "terraform apply")
	m.Err = errTest
	m.ErrorLines = []string{"Error: something broke"}

	view := m.View()
	if !strings.Contains(view, "Error: something broke") {
		t.Error("expected error context in view")
	}
	if !strings.Contains(view, "Failed") {
		t.Error("expected failed status")
	}
}

func TestCurrentSpinner_Wraps(t *testing.T) {
	first := currentSpinner(0)
	again := currentSpinner(len(spinnerFrames))
	if first != again {
		t.Errorf("expected spinner to wrap, got %q and %q", first, again)
	}
}

func TestConsoleSink_SuppressesDuplicateProgress(t *testing.T) {
	var buf strings.Builder
	s := NewConsoleSink(&buf)

	s.OnProgress(supervise.Progress{Label: "Planning", Percentage: 10})
	s.OnProgress(supervise.Progress{Label: "Planning", Percentage: 10})
	s.OnProgress(supervise.Progress{Label: "Planning", Percentage: 20})

	want := "[ 10%] Planning\n[ 20%] Planning\n"
	if buf.String() != want {
		t.Errorf("unexpected output %q, want %q", buf.String(), want)
	}
}

func TestConsoleSink_InteractionKeepsCursorOnPrompt(t *testing.T) {
	var buf strings.Builder
	s := NewConsoleSink(&buf)

	s.OnInteractionStart(supervise.InteractionContext{
		Lines: []string{"var.region", "Enter a value:"},
	})

	want := "var.region\nEnter a value: "
	if buf.String() != want {
		t.Errorf("unexpected output %q, want %q", buf.String(), want)
	}
}

func TestConsoleSink_ErrorContext(t *testing.T) {
	var buf strings.Builder
	s := NewConsoleSink(&buf)

	s.DisplayErrorContext([]string{"Error: boom", "  on main.tf line 3"})

	want := "Error: boom\n  on main.tf line 3\n"
	if buf.String() != want {
		t.Errorf("unexpected output %q, want %q", buf.String(), want)
	}
}

var errTest = errSentinel("test error")

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
