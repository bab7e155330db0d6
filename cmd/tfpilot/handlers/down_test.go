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

func TestDown_DestroyOnly(t *testing.T) {
	steps := stubPipeline(t, nil)

	var out bytes.Buffer
	require.NoError(t, Down(context.Background(), DownOptions{
		Options: Options{ProjectDir: t.TempDir(), Out: &out},
	}))

	require.Len(t, *steps, 1)
	assert.Equal(t, terraform.SequenceDownDestroy, (*steps)[0].sequence)
	assert.Equal(t, []string{"terraform", "destroy", terraform.AutoApproveFlag}, (*steps)[0].argv)
	assert.Contains(t, out.String(), "Resources destroyed.")
}

func TestDown_KeepRemovesStateFirst(t *testing.T) {
	steps := stubPipeline(t, nil)

	require.NoError(t, Down(context.Background(), DownOptions{
		Options: Options{ProjectDir: t.TempDir(), Out: &bytes.Buffer{}},
		Keep:    []string{"aws_ebs_volume.data", "aws_eip.static"},
	}))

	require.Len(t, *steps, 2)
	assert.Equal(t, terraform.SequenceDownRmState, (*steps)[0].sequence)
	assert.Equal(t,
		[]string{"terraform", "state", "rm", "aws_ebs_volume.data", "aws_eip.static"},
		(*steps)[0].argv)
	assert.Equal(t, terraform.SequenceDownDestroy, (*steps)[1].sequence)
}

func TestDown_RemovesStalePlan(t *testing.T) {
	stubPipeline(t, nil)
	dir := t.TempDir()
	seedSavedPlan(t, dir, terraform.PlanMetadata{ToAdd: 1})

	require.NoError(t, Down(context.Background(), DownOptions{
		Options: Options{ProjectDir: dir, Out: &bytes.Buffer{}},
	}))

	workdir := filepath.Join(dir, terraform.EngineDir)
	assert.NoFileExists(t, filepath.Join(workdir, terraform.PlanFilename))
	assert.NoFileExists(t, filepath.Join(workdir, terraform.PlanMetadataFilename))
}
