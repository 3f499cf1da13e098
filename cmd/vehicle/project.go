// Project configuration loading: a vehicle.yaml file naming the source to
// compile and where to write its output, read with gopkg.in/yaml.v3 the
// same way the teacher's internal/ext/config.go reads its own project
// file.
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Project is the shape of a vehicle.yaml project file.
type Project struct {
	Source   string `yaml:"source"`
	Output   string `yaml:"output"`
	Verifier *VerifierConfig `yaml:"verifier,omitempty"`
	Cache    string `yaml:"cache,omitempty"`
}

// VerifierConfig names the optional remote verifier dispatch target.
type VerifierConfig struct {
	Target    string `yaml:"target"`
	Proto     string `yaml:"proto"`
	ImportDir string `yaml:"import_dir"`
	Method    string `yaml:"method"`
}

// LoadProject reads and parses a vehicle.yaml file at path.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file %q: %w", path, err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project file %q: %w", path, err)
	}
	if p.Source == "" {
		return nil, fmt.Errorf("project file %q: missing required field %q", path, "source")
	}
	if p.Output == "" {
		p.Output = "out"
	}
	return &p, nil
}
