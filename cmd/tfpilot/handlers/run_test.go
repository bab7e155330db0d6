package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpilot/tfpilot/internal/engine/terraform"
	"github.com/tfpilot/tfpilot/internal/history"
	"github.com/tfpilot/tfpilot/internal/manifest"
	"github.com/tfpilot/tfpilot/internal/supervise"
	"github.com/tfpilot/tfpilot/internal/ui/tui"
	"github.com/tfpilot/tfpilot/internal/util/prerequisites"
)

// recordedStep is what the stubbed pipeline captures per step.
type recordedStep struct {
	sequence terraform.Sequence
	argv     []string
	plan     *terraform.PlanMetadata
}

// stubPipeline replaces the pipeline seams so handlers run without a real
// terraform binary. Each step succeeds and its after hook sees buffered.
func stubPipeline(t *testing.T, buffered []string) *[]recordedStep {
	t.Helper()

	origCheck := checkDefaultPrereqs
	origLoad := loadManifest
	origRun := runStep
	origTTY := stdoutIsTerminal
	t.Cleanup(func() {
		checkDefaultPrereqs = origCheck
		loadManifest = origLoad
		runStep = origRun
		stdoutIsTerminal = origTTY
	})

	checkDefaultPrereqs = func() *prerequisites.CheckResults {
		return &prerequisites.CheckResults{}
	}
	loadManifest = func(string) (*manifest.Manifest, error) {
		return &manifest.Manifest{
			SchemaVersion: manifest.SchemaVersion,
			Template:      manifest.Template{Name: "stub", Engine: "terraform"},
		}, nil
	}
	stdoutIsTerminal = func() bool { return false }

	steps := &[]recordedStep{}
	runStep = func(ctx context.Context, _ *runEnv, st step) error {
		*steps = append(*steps, recordedStep{sequence: st.sequence, argv: st.argv, plan: st.plan})
		if st.after != nil {
			return st.after(ctx, buffered)
		}
		return nil
	}
	return steps
}

func TestRunCommand_StopsOnFailedPrerequisites(t *testing.T) {
	stubPipeline(t, nil)
	checkDefaultPrereqs = func() *prerequisites.CheckResults {
		return prerequisites.Check([]prerequisites.Tool{{
			Name:       "definitely-not-installed-xyz",
			Required:   true,
			InstallURL: "https://example.com",
		}})
	}

	err := runCommand(context.Background(), Options{ProjectDir: t.TempDir()},
		history.CommandConfig, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitely-not-installed-xyz")
}

func TestRunCommand_CreatesLogFile(t *testing.T) {
	stubPipeline(t, nil)
	dir := t.TempDir()

	err := runCommand(context.Background(), Options{ProjectDir: dir},
		history.CommandUp, []step{{sequence: terraform.SequenceUpApply, argv: terraform.ApplyCmd}})
	require.NoError(t, err)

	logs, err := history.NewStore(dir).ListLogs(history.CommandUp, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRunCommand_NonTTYStepsUseConsoleSink(t *testing.T) {
	stubPipeline(t, nil)
	var sink supervise.Sink
	runStep = func(_ context.Context, env *runEnv, _ step) error {
		sink = env.sink
		return nil
	}

	err := runCommand(context.Background(), Options{ProjectDir: t.TempDir()},
		history.CommandConfig, []step{{sequence: terraform.SequenceConfigInit, argv: terraform.InitCmd}})
	require.NoError(t, err)

	assert.IsType(t, &tui.ConsoleSink{}, sink,
		"without a terminal, progress still surfaces through the console sink")
}

func TestRunCommand_VerboseStepsPassThrough(t *testing.T) {
	stubPipeline(t, nil)
	sinkSet := false
	runStep = func(_ context.Context, env *runEnv, _ step) error {
		sinkSet = env.sink != nil
		return nil
	}

	err := runCommand(context.Background(), Options{ProjectDir: t.TempDir(), Verbose: true},
		history.CommandConfig, []step{{sequence: terraform.SequenceConfigInit, argv: terraform.InitCmd}})
	require.NoError(t, err)

	assert.False(t, sinkSet, "verbose mode echoes raw output without a sink")
}

func TestRunCommand_StepErrorPropagates(t *testing.T) {
	stubPipeline(t, nil)
	wantErr := assert.AnError
	runStep = func(context.Context, *runEnv, step) error { return wantErr }

	err := runCommand(context.Background(), Options{ProjectDir: t.TempDir()},
		history.CommandConfig, []step{{sequence: terraform.SequenceConfigInit}})

	require.ErrorIs(t, err, wantErr)
}
