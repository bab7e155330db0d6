package commands

import (
	"github.com/spf13/cobra"

	"github.com/tfpilot/tfpilot/cmd/tfpilot/handlers"
)

// Doctor returns the command that checks client tool availability.
func Doctor() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the client tools tfpilot uses are installed",
		Long: `Check the client tools tfpilot uses.

Reports every tool, with its version when one can be probed. A missing
required tool fails the check; missing optional tools are reported but
never fail it.

Examples:
  # Check tool availability
  tfpilot doctor`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.OutOrStdout())
		},
	}
}
