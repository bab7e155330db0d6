package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpilot/tfpilot/internal/engine/terraform"
)

// seedSavedPlan writes a plan file and metadata sidecar the way a prior
// `tfpilot config` would have.
func seedSavedPlan(t *testing.T, projectDir string, meta terraform.PlanMetadata) {
	t.Helper()
	workdir := filepath.Join(projectDir, terraform.EngineDir)
	require.NoError(t, os.MkdirAll(workdir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(workdir, terraform.PlanFilename), []byte("plan"), 0o600))
	require.NoError(t, terraform.SavePlanMetadata(meta, filepath.Join(workdir, terraform.PlanMetadataFilename)))
}

func TestUp_RequiresSavedPlan(t *testing.T) {
	stubPipeline(t, nil)

	err := Up(context.Background(), Options{ProjectDir: t.TempDir(), Out: &bytes.Buffer{}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tfpilot config")
}

func TestUp_AppliesSavedPlanWithMetadataEstimate(t *testing.T) {
	steps := stubPipeline(t, nil)
	origRead := readOutputs
	t.Cleanup(func() { readOutputs = origRead })
	readOutputs = func(context.Context, string) (map[string]terraform.Output, error) {
		return nil, assert.AnError
	}

	dir := t.TempDir()
	seedSavedPlan(t, dir, terraform.PlanMetadata{ToAdd: 3, ToDestroy: 1})

	require.NoError(t, Up(context.Background(), Options{ProjectDir: dir, Out: &bytes.Buffer{}}))

	require.Len(t, *steps, 1)
	st := (*steps)[0]
	assert.Equal(t, terraform.SequenceUpApply, st.sequence)
	assert.Equal(t, []string{"terraform", "apply", terraform.PlanFilename}, st.argv)
	require.NotNil(t, st.plan)
	assert.Equal(t, 4, st.plan.ToMutate())
}

func TestUp_PrintsCompletionAndOutputs(t *testing.T) {
	stubPipeline(t, []string{
		"aws_instance.web: Creation complete after 31s",
		"Apply complete! Resources: 1 added, 0 changed, 0 destroyed.",
	})
	origRead := readOutputs
	t.Cleanup(func() { readOutputs = origRead })
	readOutputs = func(context.Context, string) (map[string]terraform.Output, error) {
		return map[string]terraform.Output{
			"url":   {Value: json.RawMessage(`"https://example.com"`)},
			"token": {Value: json.RawMessage(`"s3cret"`), Sensitive: true},
		}, nil
	}

	dir := t.TempDir()
	seedSavedPlan(t, dir, terraform.PlanMetadata{ToAdd: 1})

	var out bytes.Buffer
	require.NoError(t, Up(context.Background(), Options{ProjectDir: dir, Out: &out}))

	assert.Contains(t, out.String(), "Apply complete!")
	assert.Contains(t, out.String(), "url = https://example.com")
	assert.Contains(t, out.String(), "token = <sensitive>")
	assert.NotContains(t, out.String(), "s3cret")
}
