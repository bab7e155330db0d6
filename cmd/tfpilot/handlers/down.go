package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/tfpilot/tfpilot/internal/engine/terraform"
	"github.com/tfpilot/tfpilot/internal/history"
)

// DownOptions configures `tfpilot down`.
type DownOptions struct {
	Options

	// Keep lists terraform state addresses to pull out of the state before
	// destroy, so those resources survive the teardown.
	Keep []string
}

// Down destroys the provisioned resources. Resources named in Keep are first
// removed from the terraform state (the 0-5% stretch of the progress bar);
// terraform destroy runs auto-approved and takes the rest.
func Down(ctx context.Context, opts DownOptions) error {
	var steps []step
	if len(opts.Keep) > 0 {
		steps = append(steps, step{
			sequence: terraform.SequenceDownRmState,
			argv:     append(slices.Clone(terraform.StateRmCmd), opts.Keep...),
		})
	}
	steps = append(steps, step{
		sequence: terraform.SequenceDownDestroy,
		argv:     append(slices.Clone(terraform.DestroyCmd), terraform.AutoApproveFlag),
	})

	if err := runCommand(ctx, opts.Options, history.CommandDown, steps); err != nil {
		return err
	}

	// The saved plan is meaningless once the resources are gone.
	workdir := opts.workdir()
	_ = os.Remove(filepath.Join(workdir, terraform.PlanFilename))
	_ = os.Remove(filepath.Join(workdir, terraform.PlanMetadataFilename))

	store := history.NewStore(opts.ProjectDir)
	for _, c := range []history.Command{history.CommandConfig, history.CommandUp, history.CommandDown} {
		result, err := store.ClearLogs(c, history.DefaultKeep)
		if err != nil || result.HasFailures() {
			fmt.Fprintf(opts.out(), "Warning: could not rotate %s logs\n", c)
		}
	}

	fmt.Fprintln(opts.out(), "Resources destroyed.")
	return nil
}
