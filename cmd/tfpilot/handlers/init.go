package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
)

// fileExists checks if a file exists. Replaceable in tests.
var fileExists = func(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Init runs the template wizard and writes the project manifest.
func Init(ctx context.Context, outputPath string, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}

	if fileExists(outputPath) {
		fmt.Fprintf(out, "Warning: %s already exists and will be overwritten.\n\n", outputPath)
	}

	result, err := runWizard(ctx)
	if err != nil {
		return err
	}

	m := result.ToManifest()
	if err := writeManifest(m, outputPath); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Manifest saved to %s\n", outputPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next Steps")
	fmt.Fprintln(out, "----------")
	fmt.Fprintf(out, "  1. Put your %s root module under engine/\n", m.Template.Engine)
	fmt.Fprintln(out, "  2. Initialize and plan:  tfpilot config")
	fmt.Fprintln(out, "  3. Apply the saved plan: tfpilot up")
	return nil
}
