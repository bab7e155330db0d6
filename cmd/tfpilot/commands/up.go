package commands

import (
	"github.com/spf13/cobra"

	"github.com/tfpilot/tfpilot/cmd/tfpilot/handlers"
)

// Up returns the command that applies the saved plan.
//
// Optional flags:
//
//	--project, -p: Project directory (default: current directory)
//	--verbose:     Echo raw terraform output instead of the dashboard
func Up() *cobra.Command {
	var (
		projectDir string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply the saved plan",
		Long: `Apply the plan saved by 'tfpilot config'.

Runs 'terraform apply' on the saved plan under supervision. The plan's
resource change counts size the progress estimate, so the bar tracks the
actual amount of work.

Examples:
  # Apply in the current directory
  tfpilot up

  # Apply a project elsewhere
  tfpilot up -p ./my-project`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Up(cmd.Context(), handlers.Options{
				ProjectDir: projectDir,
				Verbose:    verbose,
			})
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Project directory")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Echo raw terraform output")

	return cmd
}
