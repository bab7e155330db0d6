package handlers

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpilot/tfpilot/internal/manifest"
)

func TestInit_WritesValidManifest(t *testing.T) {
	origWizard := runWizard
	t.Cleanup(func() { runWizard = origWizard })
	runWizard = func(context.Context) (*manifest.WizardResult, error) {
		return &manifest.WizardResult{Name: "web-stack", Engine: "terraform", Version: "1.9.0"}, nil
	}

	path := filepath.Join(t.TempDir(), manifest.Filename)
	var out bytes.Buffer

	require.NoError(t, Init(context.Background(), path, &out))

	loaded, err := manifest.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "web-stack", loaded.Template.Name)
	assert.Contains(t, out.String(), "Next Steps")
}

func TestInit_WarnsOnOverwrite(t *testing.T) {
	origWizard := runWizard
	t.Cleanup(func() { runWizard = origWizard })
	runWizard = func(context.Context) (*manifest.WizardResult, error) {
		return &manifest.WizardResult{Name: "again", Engine: "terraform"}, nil
	}

	dir := t.TempDir()
	path := filepath.Join(dir, manifest.Filename)
	require.NoError(t, manifest.Save(
		(&manifest.WizardResult{Name: "first", Engine: "terraform"}).ToManifest(), path))

	var out bytes.Buffer
	require.NoError(t, Init(context.Background(), path, &out))

	assert.Contains(t, out.String(), "already exists")
	loaded, err := manifest.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "again", loaded.Template.Name)
}

func TestInit_WizardCancelPropagates(t *testing.T) {
	origWizard := runWizard
	t.Cleanup(func() { runWizard = origWizard })
	runWizard = func(context.Context) (*manifest.WizardResult, error) {
		return nil, assert.AnError
	}

	err := Init(context.Background(), filepath.Join(t.TempDir(), manifest.Filename), &bytes.Buffer{})
	require.ErrorIs(t, err, assert.AnError)
}
