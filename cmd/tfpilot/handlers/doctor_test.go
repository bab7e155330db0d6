package handlers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpilot/tfpilot/internal/util/prerequisites"
)

func stubDoctorResults(t *testing.T, results *prerequisites.CheckResults) {
	t.Helper()
	orig := checkAllPrereqs
	t.Cleanup(func() { checkAllPrereqs = orig })
	checkAllPrereqs = func() *prerequisites.CheckResults { return results }
}

func TestDoctor_ReportsFoundTools(t *testing.T) {
	stubDoctorResults(t, &prerequisites.CheckResults{
		Results: []prerequisites.CheckResult{
			{
				Tool:    prerequisites.Tool{Name: "terraform", Required: true},
				Found:   true,
				Version: "Terraform v1.9.0",
			},
			{
				Tool:  prerequisites.Tool{Name: "aws"},
				Found: true,
			},
		},
	})
	var out bytes.Buffer

	err := Doctor(&out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "[OK] terraform (Terraform v1.9.0)")
	assert.Contains(t, out.String(), "[OK] aws")
}

func TestDoctor_MissingRequiredToolFails(t *testing.T) {
	missing := prerequisites.Tool{
		Name:       "terraform",
		Required:   true,
		InstallURL: "https://example.com/install",
	}
	stubDoctorResults(t, &prerequisites.CheckResults{
		Results: []prerequisites.CheckResult{{Tool: missing}},
		Missing: []prerequisites.Tool{missing},
	})
	var out bytes.Buffer

	err := Doctor(&out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "terraform")
	assert.Contains(t, out.String(), "[!!] terraform missing")
	assert.Contains(t, out.String(), "https://example.com/install")
}

func TestDoctor_MissingOptionalToolDoesNotFail(t *testing.T) {
	missing := prerequisites.Tool{
		Name:       "aws",
		InstallURL: "https://example.com/aws",
	}
	stubDoctorResults(t, &prerequisites.CheckResults{
		Results: []prerequisites.CheckResult{{Tool: missing}},
		Missing: []prerequisites.Tool{missing},
	})
	var out bytes.Buffer

	err := Doctor(&out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "[--] aws not found (optional)")
}
