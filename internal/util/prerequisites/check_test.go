package prerequisites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_FindsInstalledTool(t *testing.T) {
	t.Parallel()
	// sh is a safe bet on any unix test environment.
	results := Check([]Tool{{Name: "sh", Required: true}})

	require.Len(t, results.Results, 1)
	assert.True(t, results.Results[0].Found)
	assert.NotEmpty(t, results.Results[0].Path)
	assert.False(t, results.HasErrors())
	assert.NoError(t, results.Error())
}

func TestCheck_MissingRequiredTool(t *testing.T) {
	t.Parallel()
	results := Check([]Tool{{
		Name:       "nonexistent-tool-xyz123",
		Required:   true,
		InstallURL: "https://example.com",
	}})

	require.Len(t, results.Missing, 1)
	assert.True(t, results.HasErrors())

	err := results.Error()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent-tool-xyz123")
	assert.Contains(t, err.Error(), "https://example.com")
}

func TestCheck_MissingOptionalToolIsNotAnError(t *testing.T) {
	t.Parallel()
	results := Check([]Tool{{Name: "nonexistent-tool-xyz123", Required: false}})

	require.Len(t, results.Missing, 1)
	assert.False(t, results.HasErrors())
	assert.NoError(t, results.Error())
}

func TestDefaultTools_RequireTerraform(t *testing.T) {
	t.Parallel()
	tools := DefaultTools()
	require.NotEmpty(t, tools)
	assert.Equal(t, "terraform", tools[0].Name)
	assert.True(t, tools[0].Required)
}

func TestCheckAll_IncludesOptionalTools(t *testing.T) {
	t.Parallel()
	results := CheckAll()
	assert.GreaterOrEqual(t, len(results.Results), len(DefaultTools())+len(OptionalTools())-1)
}
