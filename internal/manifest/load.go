package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses a manifest from a YAML file.
func LoadFile(path string) (*Manifest, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var m Manifest
	if err := mapstructure.Decode(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}

	return &m, nil
}

// LoadProject loads the manifest from its canonical location inside a
// project directory.
func LoadProject(projectDir string) (*Manifest, error) {
	return LoadFile(filepath.Join(projectDir, Filename))
}
