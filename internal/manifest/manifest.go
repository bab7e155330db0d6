// Package manifest defines the tfpilot.yaml project manifest structure.
package manifest

import (
	"fmt"

	"github.com/tfpilot/tfpilot/internal/supervise"
)

// Filename is the manifest file name at the project root.
const Filename = "tfpilot.yaml"

// SchemaVersion is the only manifest schema version this build understands.
const SchemaVersion = 1

// Manifest is the parsed tfpilot.yaml of one project.
type Manifest struct {
	SchemaVersion int      `mapstructure:"schema-version" yaml:"schema-version"`
	Template      Template `mapstructure:"template" yaml:"template"`

	// SupervisedExecution optionally overrides the engine's built-in phase
	// configurations per command sequence.
	SupervisedExecution *SupervisedExecution `mapstructure:"supervised-execution" yaml:"supervised-execution"`
}

// Template identifies the project template the manifest belongs to.
type Template struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Engine  string `mapstructure:"engine" yaml:"engine"` // e.g. terraform
	Version string `mapstructure:"version" yaml:"version"`
}

// CommandExecution is the supervised-execution configuration of one command
// sequence: an optional default phase plus optional declared phases.
type CommandExecution struct {
	DefaultPhase *supervise.DefaultPhaseConfig `mapstructure:"default-phase" yaml:"default-phase"`
	Phases       []supervise.PhaseConfig      `mapstructure:"phases" yaml:"phases"`
}

// SupervisedExecution maps sequence IDs (e.g. "config.terraform-init") to
// command execution configurations, grouped by CLI command.
type SupervisedExecution struct {
	Config map[string]CommandExecution `mapstructure:"config" yaml:"config"`
	Up     map[string]CommandExecution `mapstructure:"up" yaml:"up"`
	Down   map[string]CommandExecution `mapstructure:"down" yaml:"down"`
}

// Validate checks schema version, template fields, and every declared
// supervised-execution configuration. Phase configurations are validated by
// constructing them, so a manifest that loads is guaranteed to produce
// working phase state machines later.
func (m *Manifest) Validate() error {
	if m.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema-version %d, want %d", m.SchemaVersion, SchemaVersion)
	}
	if m.Template.Name == "" {
		return fmt.Errorf("template.name is required")
	}
	if m.Template.Engine == "" {
		return fmt.Errorf("template.engine is required")
	}

	if m.SupervisedExecution == nil {
		return nil
	}
	for _, group := range []map[string]CommandExecution{
		m.SupervisedExecution.Config,
		m.SupervisedExecution.Up,
		m.SupervisedExecution.Down,
	} {
		for id, ce := range group {
			if err := ce.validate(); err != nil {
				return fmt.Errorf("supervised-execution %q: %w", id, err)
			}
		}
	}
	return nil
}

func (ce CommandExecution) validate() error {
	totalWeight := 0
	for _, pc := range ce.Phases {
		if _, err := supervise.NewPhase(pc, 1); err != nil {
			return err
		}
		totalWeight += pc.Weight
	}
	if totalWeight > 100 {
		return fmt.Errorf("phase weights sum to %d, must be <= 100", totalWeight)
	}
	if ce.DefaultPhase != nil {
		if _, err := supervise.NewDefaultPhase(*ce.DefaultPhase, 100, 0); err != nil {
			return err
		}
	}
	return nil
}
