package tui

import (
	"fmt"
	"strings"
	"time"
)

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)

	// The interaction panel replaces the log tail while input is pending,
	// so the prompt context gets the space.
	if m.Interacting {
		renderInteraction(&b, m)
	} else {
		renderLogBox(&b, m)
	}

	if len(m.ErrorLines) > 0 {
		renderErrorContext(&b, m)
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	b.WriteString(titleStyle.Render("  " + m.Title))
	b.WriteString("\n")

	elapsed := formatDuration(time.Since(m.StartTime))
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("  %s  elapsed %s", m.Command, elapsed)))
	b.WriteString("\n")

	status := "  "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(crossMark + " Failed")
	case m.Done:
		status += doneStyle.Render(checkMark + " Complete")
	case m.Interacting:
		status += promptStyle.Render(inputMark + " Waiting for input")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame) + " Running")
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}

	pct := m.Percentage
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := barWidth * pct / 100

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	label := ""
	if m.Label != "" {
		label = "  " + m.Label
	}
	fmt.Fprintf(b, "\n  %s %d%%%s\n", bar, pct, dimStyle.Render(label))
}

func renderLogBox(b *strings.Builder, m Model) {
	if len(m.LogLines) == 0 {
		return
	}

	b.WriteString(sectionStyle.Render("  Output"))
	b.WriteString("\n")
	for _, line := range m.LogLines {
		fmt.Fprintf(b, "    %s\n", dimStyle.Render(line))
	}
}

func renderInteraction(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Input needed"))
	b.WriteString("\n")
	for _, line := range m.InteractionLines {
		fmt.Fprintf(b, "    %s\n", promptStyle.Render(line))
	}
	b.WriteString(dimStyle.Render("    Type your answer and press enter."))
	b.WriteString("\n")
}

func renderErrorContext(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Error"))
	b.WriteString("\n")
	for _, line := range m.ErrorLines {
		fmt.Fprintf(b, "    %s\n", failedStyle.Render(line))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	if m.Done || m.Err != nil {
		return
	}
	b.WriteString(footerStyle.Render("  ctrl+c abort"))
	b.WriteString("\n")
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
