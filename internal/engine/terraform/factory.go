package terraform

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/tfpilot/tfpilot/internal/manifest"
	"github.com/tfpilot/tfpilot/internal/supervise"
)

// sequenceDefaults holds the built-in supervision configuration of one
// sequence, used when the project manifest declares nothing for it.
type sequenceDefaults struct {
	defaultPhase supervise.DefaultPhaseConfig
	phases       []supervise.PhaseConfig

	// start and end bound this sequence's slice of the overall command
	// progress bar.
	start int
	end   int
}

func defaultsFor(sequence Sequence) (sequenceDefaults, error) {
	switch sequence {
	case SequenceConfigInit:
		// Init: backend, modules, and provider installation events.
		return sequenceDefaults{
			defaultPhase: supervise.DefaultPhaseConfig{
				Label:                  "Configuring terraform",
				ProgressPattern:        `(Initializing|Installed|Terraform has been successfully initialized)`,
				ProgressEventsEstimate: 8,
			},
			start: 0,
			end:   20,
		}, nil

	case SequenceConfigPlan:
		// Plan: count read/refresh events only.
		return sequenceDefaults{
			defaultPhase: supervise.DefaultPhaseConfig{
				Label:                  "Reading data sources",
				ProgressPattern:        `(Read complete after|Refreshing state)`,
				ProgressEventsEstimate: 50,
			},
			start: 20,
			end:   100,
		}, nil

	case SequenceUpApply:
		// Apply: resource mutation events, sized by the saved plan when
		// its metadata sidecar is available.
		return sequenceDefaults{
			defaultPhase: supervise.DefaultPhaseConfig{
				Label: "Mutating resources",
				ProgressPattern: `(Creation complete after|Modifications complete after|` +
					`Destruction complete after|Refreshing state)`,
				ProgressEventsEstimateDynamicSource: string(SourcePlanToMutate),
			},
			start: 0,
			end:   100,
		}, nil

	case SequenceDownRmState:
		// State removal: quick, takes the first 5% of down.
		return sequenceDefaults{
			defaultPhase: supervise.DefaultPhaseConfig{
				Label:           "Persisting resources",
				ProgressPattern: `(Successfully removed|Removed)`,
			},
			start: 0,
			end:   5,
		}, nil

	case SequenceDownDestroy:
		// Destroy: a planning stretch, then a destruction phase sized by
		// the destroy count captured from terraform's own plan summary.
		return sequenceDefaults{
			defaultPhase: supervise.DefaultPhaseConfig{
				Label:                  "Planning",
				ProgressPattern:        `(Read complete after|Refreshing state\.\.\. \[id=)`,
				ProgressEventsEstimate: 50,
			},
			phases: []supervise.PhaseConfig{
				{
					Label:                              "Destroying resources",
					EnterPattern:                       `Plan:(?:\x1b\[[0-9;]*m)*\s+\d+ to add, \d+ to change, (\d+) to destroy\.`,
					ProgressPattern:                    `Destruction complete after`,
					Weight:                             80,
					ProgressEventsEstimateCaptureGroup: 1,
				},
			},
			start: 5,
			end:   100,
		}, nil
	}

	return sequenceDefaults{}, fmt.Errorf("unknown sequence %q", sequence)
}

// ExecutorOptions configures one supervised terraform invocation.
type ExecutorOptions struct {
	Sequence Sequence

	// Workdir is the terraform root module directory.
	Workdir string

	// LogFile is the append-only output log for the whole command; every
	// sequence of one command shares it.
	LogFile string

	// Callback receives classified output. Required.
	Callback supervise.Callback

	// Manifest, when set, may override the built-in phase configuration
	// for this sequence.
	Manifest *manifest.Manifest

	// Plan, when set, resolves dynamic progress estimates declared by the
	// default phase configuration.
	Plan *PlanMetadata

	// Input is forwarded to terraform's stdin. Defaults to os.Stdin.
	Input io.Reader

	Logger logr.Logger
}

// NewExecutor builds a supervised executor for the given sequence, applying
// the manifest's supervised-execution configuration when present and the
// built-in defaults otherwise.
func NewExecutor(opts ExecutorOptions) (*supervise.Executor, error) {
	defaults, err := defaultsFor(opts.Sequence)
	if err != nil {
		return nil, err
	}

	defaultPhaseConfig := defaults.defaultPhase
	phaseConfigs := defaults.phases
	if cc := opts.Sequence.commandConfig(opts.Manifest); cc != nil {
		// A manifest entry replaces the built-in configuration wholesale:
		// its phase list stands even when empty.
		phaseConfigs = cc.Phases
		if cc.DefaultPhase != nil {
			defaultPhaseConfig = *cc.DefaultPhase
		}
	}

	phases := make([]*supervise.Phase, 0, len(phaseConfigs))
	totalWeight := 0
	for _, pc := range phaseConfigs {
		p, err := supervise.NewPhase(pc, 1)
		if err != nil {
			return nil, fmt.Errorf("sequence %s: %w", opts.Sequence, err)
		}
		phases = append(phases, p)
		totalWeight += pc.Weight
	}

	override := 0
	if opts.Plan != nil && defaultPhaseConfig.ProgressEventsEstimateDynamicSource != "" {
		if v, ok := opts.Plan.Value(MetadataSource(defaultPhaseConfig.ProgressEventsEstimateDynamicSource)); ok {
			override = v
		}
	}

	defaultWeight := max(100-totalWeight, 0)
	defaultPhase, err := supervise.NewDefaultPhase(defaultPhaseConfig, defaultWeight, override)
	if err != nil {
		return nil, fmt.Errorf("sequence %s: %w", opts.Sequence, err)
	}

	return supervise.NewExecutor(supervise.ExecutorConfig{
		Workdir:          opts.Workdir,
		LogFile:          opts.LogFile,
		Callback:         opts.Callback,
		DefaultPhase:     defaultPhase,
		Phases:           phases,
		PercentageStart:  defaults.start,
		PercentageWeight: defaults.end - defaults.start,
		PromptCheckChars: promptCheckChars,
		Input:            opts.Input,
		Logger:           opts.Logger,
	})
}
