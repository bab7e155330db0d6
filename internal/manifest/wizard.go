package manifest

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"
)

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// WizardResult holds the user's choices from the init wizard.
type WizardResult struct {
	Name    string
	Engine  string
	Version string
}

// RunWizard asks for the project template identity interactively.
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{
		Engine: "terraform",
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Template name").
				Description("A name for this project template (lowercase, hyphens allowed)").
				Placeholder("my-template").
				Value(&result.Name).
				Validate(validateTemplateName),
		),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Engine").
				Description("The infrastructure tool this template drives").
				Options(
					huh.NewOption("Terraform", "terraform"),
				).
				Value(&result.Engine),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("Engine version (optional)").
				Description("Pin an engine version, or leave empty for any").
				Placeholder("1.9.0").
				Value(&result.Version).
				Validate(validateEngineVersion),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("wizard canceled: %w", err)
	}

	return result, nil
}

// ToManifest converts the wizard result to a manifest.
func (r *WizardResult) ToManifest() *Manifest {
	return &Manifest{
		SchemaVersion: SchemaVersion,
		Template: Template{
			Name:    r.Name,
			Engine:  r.Engine,
			Version: r.Version,
		},
	}
}

// Save writes the manifest as YAML.
func Save(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}

func validateTemplateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if !nameRe.MatchString(name) {
		return fmt.Errorf("use lowercase letters, digits, and hyphens, starting with a letter")
	}
	return nil
}

var versionRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

func validateEngineVersion(version string) error {
	if version == "" {
		return nil
	}
	if !versionRe.MatchString(version) {
		return fmt.Errorf("use a dotted version number, e.g. 1.9.0")
	}
	return nil
}
