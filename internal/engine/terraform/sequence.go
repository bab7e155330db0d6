package terraform

import "github.com/tfpilot/tfpilot/internal/manifest"

// Sequence identifies one supervised terraform invocation within a CLI
// command. Format: {command}.{tool-subcommand}.
type Sequence string

const (
	SequenceConfigInit  Sequence = "config.terraform-init"
	SequenceConfigPlan  Sequence = "config.terraform-plan"
	SequenceUpApply     Sequence = "up.terraform-apply"
	SequenceDownRmState Sequence = "down.terraform-state-rm"
	SequenceDownDestroy Sequence = "down.terraform-destroy"
)

// String returns the sequence ID.
func (s Sequence) String() string { return string(s) }

// commandConfig returns the manifest's supervised-execution configuration
// for this sequence, or nil when the manifest declares none.
func (s Sequence) commandConfig(m *manifest.Manifest) *manifest.CommandExecution {
	if m == nil || m.SupervisedExecution == nil {
		return nil
	}

	var group map[string]manifest.CommandExecution
	switch s {
	case SequenceConfigInit, SequenceConfigPlan:
		group = m.SupervisedExecution.Config
	case SequenceUpApply:
		group = m.SupervisedExecution.Up
	case SequenceDownRmState, SequenceDownDestroy:
		group = m.SupervisedExecution.Down
	default:
		return nil
	}

	if ce, ok := group[string(s)]; ok {
		return &ce
	}
	return nil
}
