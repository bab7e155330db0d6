package handlers

import (
	"fmt"
	"io"
	"os"

	"github.com/tfpilot/tfpilot/internal/util/prerequisites"
)

// Factory function variable - can be replaced in tests for dependency injection.
var checkAllPrereqs = prerequisites.CheckAll

// Doctor reports the availability of every tool tfpilot can use, required
// and optional, and fails when a required one is missing.
func Doctor(out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}

	results := checkAllPrereqs()

	fmt.Fprintln(out, "Tool availability:")
	for _, r := range results.Results {
		switch {
		case r.Found && r.Version != "":
			fmt.Fprintf(out, "  [OK] %s (%s)\n", r.Tool.Name, r.Version)
		case r.Found:
			fmt.Fprintf(out, "  [OK] %s\n", r.Tool.Name)
		case r.Tool.Required:
			fmt.Fprintf(out, "  [!!] %s missing - install: %s\n", r.Tool.Name, r.Tool.InstallURL)
		default:
			fmt.Fprintf(out, "  [--] %s not found (optional) - install: %s\n", r.Tool.Name, r.Tool.InstallURL)
		}
	}

	return results.Error()
}
