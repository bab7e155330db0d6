package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/tfpilot/tfpilot/internal/engine/terraform"
	"github.com/tfpilot/tfpilot/internal/history"
)

// Up applies the plan saved by `tfpilot config`. The plan metadata sidecar,
// when present, sizes the apply progress estimate by the number of resources
// the plan mutates.
func Up(ctx context.Context, opts Options) error {
	workdir := opts.workdir()
	planPath := filepath.Join(workdir, terraform.PlanFilename)
	if _, err := os.Stat(planPath); err != nil {
		return fmt.Errorf("no saved plan at %s: run 'tfpilot config' first", planPath)
	}

	var summary []string

	steps := []step{{
		sequence: terraform.SequenceUpApply,
		argv:     append(slices.Clone(terraform.ApplyCmd), terraform.PlanFilename),
		plan:     terraform.LoadPlanMetadata(filepath.Join(workdir, terraform.PlanMetadataFilename)),
		after: func(_ context.Context, buffered []string) error {
			summary = terraform.NewDetector(terraform.SequenceUpApply).CompletionContext(buffered)
			return nil
		},
	}}

	if err := runCommand(ctx, opts, history.CommandUp, steps); err != nil {
		return err
	}

	printLines(opts.out(), summary)
	printOutputs(ctx, opts)
	return nil
}

// printOutputs shows the template's terraform outputs after a successful
// apply. Outputs are informational; failures to read them are not errors.
func printOutputs(ctx context.Context, opts Options) {
	outputs, err := readOutputs(ctx, opts.workdir())
	if err != nil || len(outputs) == 0 {
		return
	}

	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := opts.out()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Outputs")
	fmt.Fprintln(out, "-------")
	for _, name := range names {
		o := outputs[name]
		value := o.StringValue()
		if value == "" {
			value = string(o.Value)
		}
		if o.Sensitive {
			value = "<sensitive>"
		}
		fmt.Fprintf(out, "  %s = %s\n", name, value)
	}
}
