package commands

import (
	"github.com/spf13/cobra"

	"github.com/tfpilot/tfpilot/cmd/tfpilot/handlers"
	"github.com/tfpilot/tfpilot/internal/manifest"
)

// Init returns the command that scaffolds a project manifest.
//
// Optional flags:
//
//	--output, -o: Path for the generated manifest (default: tfpilot.yaml)
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a project manifest interactively",
		Long: `Create a tfpilot project manifest.

The wizard asks for the template identity and writes tfpilot.yaml. Put your
terraform root module under engine/ next to it, then run 'tfpilot config'.

Examples:
  # Create tfpilot.yaml in the current directory
  tfpilot init

  # Write the manifest somewhere else
  tfpilot init -o templates/web/tfpilot.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, nil)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", manifest.Filename, "Path for the generated manifest")

	return cmd
}
