package terraform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanMetadata_DerivedCounts(t *testing.T) {
	t.Parallel()
	m := PlanMetadata{ToAdd: 5, ToChange: 2, ToDestroy: 3}

	assert.Equal(t, 10, m.ToMutate())
	assert.Equal(t, 7, m.ToUpdate())

	tests := []struct {
		source MetadataSource
		want   int
	}{
		{SourcePlanToAdd, 5},
		{SourcePlanToChange, 2},
		{SourcePlanToDestroy, 3},
		{SourcePlanToUpdate, 7},
		{SourcePlanToMutate, 10},
	}
	for _, tt := range tests {
		v, ok := m.Value(tt.source)
		require.True(t, ok, "source %s", tt.source)
		assert.Equal(t, tt.want, v, "source %s", tt.source)
	}

	_, ok := m.Value("plan.unknown")
	assert.False(t, ok)
}

func TestPlanMetadata_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", PlanMetadataFilename)
	saved := PlanMetadata{ToAdd: 4, ToChange: 1, ToDestroy: 0}

	require.NoError(t, SavePlanMetadata(saved, path))

	loaded := LoadPlanMetadata(path)
	require.NotNil(t, loaded)
	assert.Equal(t, saved, *loaded)
}

func TestLoadPlanMetadata_MissingOrCorrupt(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	assert.Nil(t, LoadPlanMetadata(filepath.Join(dir, "absent.json")))

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("not json"), 0o600))
	assert.Nil(t, LoadPlanMetadata(corrupt))
}

func TestParsePlanSummary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		line string
		want *PlanMetadata
	}{
		{
			"plain summary",
			"Plan: 5 to add, 2 to change, 3 to destroy.",
			&PlanMetadata{ToAdd: 5, ToChange: 2, ToDestroy: 3},
		},
		{
			"ansi wrapped summary",
			"\x1b[1mPlan:\x1b[0m \x1b[1m5\x1b[0m to add, \x1b[1m0\x1b[0m to change, \x1b[1m0\x1b[0m to destroy.",
			&PlanMetadata{ToAdd: 5},
		},
		{"not a summary", "Apply complete! Resources: 5 added", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParsePlanSummary(tt.line)
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestParseShowJSON(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"format_version": "1.2",
		"resource_changes": [
			{"address": "aws_instance.a", "change": {"actions": ["create"]}},
			{"address": "aws_instance.b", "change": {"actions": ["update"]}},
			{"address": "aws_instance.c", "change": {"actions": ["delete", "create"]}},
			{"address": "aws_instance.d", "change": {"actions": ["no-op"]}}
		]
	}`)

	got, err := ParseShowJSON(data)
	require.NoError(t, err)
	assert.Equal(t, PlanMetadata{ToAdd: 2, ToChange: 1, ToDestroy: 1}, *got)

	_, err = ParseShowJSON([]byte("not json"))
	require.Error(t, err)
}
