package terraform

import (
	"regexp"
	"strings"

	"github.com/tfpilot/tfpilot/internal/supervise"
)

// ansiEscape matches terraform's ANSI color codes.
// Raw prompt line: "  \x1b[1mEnter a value:\x1b[0m \x1b[0m"
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// promptSuffix ends every terraform input prompt, variable and confirmation
// alike.
const promptSuffix = "Enter a value:"

func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Detector implements prompt detection and context extraction for terraform
// output. Context extraction is sequence-aware: variable prompts during
// config anchor on the "var." declaration, confirmation prompts during
// apply/destroy anchor on the "Plan:" summary.
//
// Detector also implements supervise.ErrorContextExtractor, anchoring failure
// context on terraform's "Error: " lines.
type Detector struct {
	sequence Sequence
}

// NewDetector returns a Detector for the given command sequence.
func NewDetector(sequence Sequence) *Detector {
	return &Detector{sequence: sequence}
}

// DetectInteraction reports whether line is a terraform input prompt. The
// containment check runs first so ordinary lines never pay for ANSI
// stripping.
func (d *Detector) DetectInteraction(line string) bool {
	if !strings.Contains(line, promptSuffix) {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(stripANSI(line)), promptSuffix)
}

// IsInteractionComplete always reports true: any output line after a prompt
// means the user responded and terraform moved on.
func (d *Detector) IsInteractionComplete(string) bool { return true }

// ExtractInteractionContext returns the buffered lines to display alongside
// the prompt. The prompt line itself is the last element of buffered.
func (d *Detector) ExtractInteractionContext(_ string, buffered []string) supervise.InteractionContext {
	switch d.sequence {
	case SequenceConfigInit, SequenceConfigPlan:
		return supervise.InteractionContext{Lines: d.variableContext(buffered)}
	case SequenceUpApply, SequenceDownDestroy:
		return supervise.InteractionContext{Lines: d.planSummaryContext(buffered)}
	}
	return supervise.InteractionContext{Lines: lastLines(buffered, 10)}
}

// variableContext anchors on the most recent "var." line, capturing the full
// variable description terraform prints before prompting.
func (d *Detector) variableContext(buffered []string) []string {
	for i := len(buffered) - 1; i >= 0; i-- {
		if strings.HasPrefix(stripANSI(buffered[i]), "var.") {
			return buffered[i:]
		}
	}
	return lastLines(buffered, 10)
}

// planSummaryContext anchors on the most recent plan summary line, e.g.
// "Plan: 5 to add, 0 to change, 3 to destroy."
func (d *Detector) planSummaryContext(buffered []string) []string {
	for i := len(buffered) - 1; i >= 0; i-- {
		clean := stripANSI(buffered[i])
		if strings.Contains(clean, "Plan:") &&
			(strings.Contains(clean, "to add") || strings.Contains(clean, "to destroy")) {
			return buffered[i:]
		}
	}
	return lastLines(buffered, 20)
}

// ExtractErrorContext anchors failure context on the first "Error: " line
// found searching backwards, capped at 50 lines. Nil means no anchor was
// found and the caller should fall back to its default slice.
func (d *Detector) ExtractErrorContext(buffered []string) []string {
	for i := len(buffered) - 1; i >= 0; i-- {
		if strings.Contains(strings.TrimSpace(stripANSI(buffered[i])), "Error: ") {
			end := min(i+50, len(buffered))
			return buffered[i:end]
		}
	}
	return nil
}

// CompletionContext returns the lines summarizing a successful run: the plan
// summary line for config, the "Apply complete!" block for up. Nil when the
// sequence has no completion summary or the pattern was not found.
func (d *Detector) CompletionContext(buffered []string) []string {
	var pattern string
	var maxLines int
	switch d.sequence {
	case SequenceConfigPlan:
		pattern, maxLines = "Plan:", 1
	case SequenceUpApply:
		pattern, maxLines = "Apply complete!", 50
	default:
		return nil
	}

	for i := len(buffered) - 1; i >= 0; i-- {
		if strings.Contains(stripANSI(buffered[i]), pattern) {
			end := min(i+maxLines, len(buffered))
			return buffered[i:end]
		}
	}
	return nil
}

func lastLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
