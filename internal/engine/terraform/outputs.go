package terraform

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// Output is one entry of `terraform output -json`.
type Output struct {
	Value     json.RawMessage `json:"value"`
	Type      json.RawMessage `json:"type"`
	Sensitive bool            `json:"sensitive"`
}

// StringValue returns the output value when it is a plain string, or "" for
// any other type.
func (o Output) StringValue() string {
	var s string
	if err := json.Unmarshal(o.Value, &s); err != nil {
		return ""
	}
	return s
}

// ReadOutputs runs `terraform output -json` in workdir and decodes the
// result. Output reads are quick and non-interactive, so they run directly
// rather than under supervision.
func ReadOutputs(ctx context.Context, workdir string) (map[string]Output, error) {
	cmd := exec.CommandContext(ctx, OutputCmd[0], OutputCmd[1:]...) // #nosec G204 -- fixed argv
	cmd.Dir = workdir

	data, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("reading terraform outputs: %w", err)
	}

	outputs := map[string]Output{}
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, fmt.Errorf("decoding terraform outputs: %w", err)
	}
	return outputs, nil
}

// ReadPlanMetadata runs `terraform show -json` on a saved plan file and
// extracts its resource change counts.
func ReadPlanMetadata(ctx context.Context, workdir, planFile string) (*PlanMetadata, error) {
	argv := append(append([]string{}, ShowPlanCmd...), planFile)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) // #nosec G204 -- fixed argv plus the saved plan path
	cmd.Dir = workdir

	data, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("showing terraform plan: %w", err)
	}
	return ParseShowJSON(data)
}
