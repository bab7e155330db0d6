package commands

import (
	"github.com/spf13/cobra"

	"github.com/tfpilot/tfpilot/cmd/tfpilot/handlers"
)

// Config returns the command that initializes the engine and saves a plan.
//
// Optional flags:
//
//	--project, -p: Project directory (default: current directory)
//	--verbose:     Echo raw terraform output instead of the dashboard
func Config() *cobra.Command {
	var (
		projectDir string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Initialize the engine and save an execution plan",
		Long: `Initialize terraform and save an execution plan.

Runs 'terraform init' and 'terraform plan -out' under supervision: output is
classified into weighted progress, interactive prompts (variable values,
backend questions) are surfaced and forwarded, and every line is recorded.

Examples:
  # Configure the project in the current directory
  tfpilot config

  # Configure a project elsewhere, streaming raw output
  tfpilot config -p ./my-project --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Config(cmd.Context(), handlers.Options{
				ProjectDir: projectDir,
				Verbose:    verbose,
			})
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Project directory")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Echo raw terraform output")

	return cmd
}
