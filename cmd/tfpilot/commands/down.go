package commands

import (
	"github.com/spf13/cobra"

	"github.com/tfpilot/tfpilot/cmd/tfpilot/handlers"
)

// Down returns the command that destroys the provisioned resources.
//
// Optional flags:
//
//	--project, -p: Project directory (default: current directory)
//	--keep:        State addresses to preserve (repeatable)
//	--verbose:     Echo raw terraform output instead of the dashboard
func Down() *cobra.Command {
	var (
		projectDir string
		verbose    bool
		keep       []string
	)

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Destroy the provisioned resources",
		Long: `Destroy everything the template provisioned.

Resources named with --keep are removed from the terraform state first and
survive the teardown. 'terraform destroy' then runs auto-approved under
supervision.

Examples:
  # Destroy everything
  tfpilot down

  # Destroy but keep a data volume
  tfpilot down --keep aws_ebs_volume.data`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Down(cmd.Context(), handlers.DownOptions{
				Options: handlers.Options{
					ProjectDir: projectDir,
					Verbose:    verbose,
				},
				Keep: keep,
			})
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Project directory")
	cmd.Flags().StringArrayVar(&keep, "keep", nil, "State address to preserve (repeatable)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Echo raw terraform output")

	return cmd
}
