package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/tfpilot/tfpilot/internal/engine/terraform"
	"github.com/tfpilot/tfpilot/internal/history"
)

// Config initializes the engine and writes a saved plan: terraform init
// takes the 0-20% stretch of the progress bar, terraform plan the rest. On
// success the plan's resource change counts are persisted next to the plan,
// so a later `tfpilot up` can size its progress estimate.
func Config(ctx context.Context, opts Options) error {
	workdir := opts.workdir()
	metaPath := filepath.Join(workdir, terraform.PlanMetadataFilename)

	var summary []string

	planArgv := append(slices.Clone(terraform.PlanCmd), "-out="+terraform.PlanFilename)

	steps := []step{
		{
			sequence: terraform.SequenceConfigInit,
			argv:     terraform.InitCmd,
		},
		{
			sequence: terraform.SequenceConfigPlan,
			argv:     planArgv,
			after: func(ctx context.Context, buffered []string) error {
				// Metadata only improves later estimates; failing to extract
				// or persist it never fails the command.
				if meta, err := readPlanMetadata(ctx, workdir, terraform.PlanFilename); err == nil && meta != nil {
					_ = terraform.SavePlanMetadata(*meta, metaPath)
				}
				summary = terraform.NewDetector(terraform.SequenceConfigPlan).CompletionContext(buffered)
				return nil
			},
		},
	}

	if err := runCommand(ctx, opts, history.CommandConfig, steps); err != nil {
		return err
	}

	printLines(opts.out(), summary)
	fmt.Fprintf(opts.out(), "\nPlan saved to %s. Run 'tfpilot up' to apply it.\n",
		filepath.Join(terraform.EngineDir, terraform.PlanFilename))
	return nil
}
