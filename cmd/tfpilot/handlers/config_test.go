package handlers

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpilot/tfpilot/internal/engine/terraform"
)

func TestConfig_RunsInitThenPlan(t *testing.T) {
	steps := stubPipeline(t, []string{"Plan: 2 to add, 1 to change, 0 to destroy."})
	origRead := readPlanMetadata
	t.Cleanup(func() { readPlanMetadata = origRead })
	readPlanMetadata = func(context.Context, string, string) (*terraform.PlanMetadata, error) {
		return &terraform.PlanMetadata{ToAdd: 2, ToChange: 1}, nil
	}

	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, Config(context.Background(), Options{ProjectDir: dir, Out: &out}))

	require.Len(t, *steps, 2)
	assert.Equal(t, terraform.SequenceConfigInit, (*steps)[0].sequence)
	assert.Equal(t, terraform.InitCmd, (*steps)[0].argv)
	assert.Equal(t, terraform.SequenceConfigPlan, (*steps)[1].sequence)
	assert.Equal(t,
		[]string{"terraform", "plan", "-out=" + terraform.PlanFilename},
		(*steps)[1].argv)
}

func TestConfig_SavesPlanMetadataSidecar(t *testing.T) {
	stubPipeline(t, nil)
	origRead := readPlanMetadata
	t.Cleanup(func() { readPlanMetadata = origRead })
	readPlanMetadata = func(context.Context, string, string) (*terraform.PlanMetadata, error) {
		return &terraform.PlanMetadata{ToAdd: 2, ToChange: 1, ToDestroy: 1}, nil
	}

	dir := t.TempDir()
	require.NoError(t, Config(context.Background(), Options{ProjectDir: dir, Out: &bytes.Buffer{}}))

	metaPath := filepath.Join(dir, terraform.EngineDir, terraform.PlanMetadataFilename)
	meta := terraform.LoadPlanMetadata(metaPath)
	require.NotNil(t, meta)
	assert.Equal(t, 4, meta.ToMutate())
}

func TestConfig_PrintsPlanSummary(t *testing.T) {
	stubPipeline(t, []string{
		"Refreshing state...",
		"Plan: 2 to add, 1 to change, 0 to destroy.",
	})
	origRead := readPlanMetadata
	t.Cleanup(func() { readPlanMetadata = origRead })
	readPlanMetadata = func(context.Context, string, string) (*terraform.PlanMetadata, error) {
		return nil, assert.AnError
	}

	var out bytes.Buffer
	require.NoError(t, Config(context.Background(), Options{ProjectDir: t.TempDir(), Out: &out}))

	assert.Contains(t, out.String(), "Plan: 2 to add, 1 to change, 0 to destroy.")
	assert.NotContains(t, out.String(), "Refreshing state...")
	assert.Contains(t, out.String(), "tfpilot up")
}
