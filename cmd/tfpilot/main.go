// Package main is the entry point for the tfpilot CLI.
//
// tfpilot runs terraform templates under supervision: output is classified
// into weighted progress, interactive prompts are surfaced and forwarded to
// the user, and every byte of output is recorded for later inspection.
//
// Commands: init, config, up, down, logs.
//
// For detailed usage information, run:
//
//	tfpilot --help
package main

import (
	"fmt"
	"os"

	"github.com/tfpilot/tfpilot/cmd/tfpilot/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
