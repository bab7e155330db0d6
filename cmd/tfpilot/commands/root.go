// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the tfpilot CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tfpilot",
		Short: "Run terraform templates with supervised progress and prompts",
	}

	// Lifecycle commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Config())
	cmd.AddCommand(Up())
	cmd.AddCommand(Down())

	// Utility commands
	cmd.AddCommand(Logs())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
