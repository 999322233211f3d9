package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/ncobase/rendercore/backend"
	"gopkg.in/yaml.v3"
)

// Manifest lists the renders to queue, in submission order
type Manifest struct {
	Jobs []backend.JobSpec `yaml:"jobs"`
}

// LoadManifest reads a YAML job manifest
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(m.Jobs) == 0 {
		return nil, errors.New("manifest has no jobs")
	}
	return &m, nil
}
