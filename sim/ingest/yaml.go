package ingest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/production-sim/production-sim/sim"
)

// ReadYAML parses a YAML scenario with strict field checking: unknown keys are errors.
func ReadYAML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", sim.ErrScenarioMalformed, path, err)
	}
	return &doc, nil
}

// WriteYAML writes doc as YAML.
func WriteYAML(path string, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scenario: %w", err)
	}
	return nil
}
