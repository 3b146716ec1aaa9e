// Package ingest loads simulation scenarios from spreadsheets and YAML files.
//
// Both formats decode into a Document, the raw tabular form of a scenario, which
// Document.Scenario validates into a sim.ScenarioData.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/production-sim/production-sim/sim"
)

// Document is a scenario as written by the user, before validation.
type Document struct {
	WorkersCount int             `yaml:"workers_count"`
	DetailsCount int             `yaml:"details_count"`
	Centers      []CenterRow     `yaml:"centers"`
	Connections  []ConnectionRow `yaml:"connections"`
}

// CenterRow is one production center entry.
type CenterRow struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Performance float64 `yaml:"performance"`
	MaxWorkers  int     `yaml:"max_workers"`
}

// ConnectionRow is one directed edge entry.
type ConnectionRow struct {
	Source string `yaml:"source_center"`
	Dest   string `yaml:"dest_center"`
}

// Load reads a scenario file, choosing the decoder by extension (.xlsx, .yaml, .yml).
func Load(path string) (*sim.ScenarioData, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	sd, err := doc.Scenario()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logrus.Infof("Loaded scenario %s: %d centers, %d connections, start=%s end=%s",
		path, len(sd.Centers), len(sd.Connections), sd.StartCenterID, sd.EndCenterID)
	return sd, nil
}

// ReadDocument decodes a scenario file without validating it.
func ReadDocument(path string) (*Document, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return ReadWorkbook(path)
	case ".yaml", ".yml":
		return ReadYAML(path)
	default:
		return nil, fmt.Errorf("%w: unsupported scenario file extension %q (want .xlsx, .yaml or .yml)", sim.ErrScenarioMalformed, ext)
	}
}

// Save writes a document in the format matching the extension of path.
func Save(path string, doc *Document) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return WriteWorkbook(path, doc)
	case ".yaml", ".yml":
		return WriteYAML(path, doc)
	default:
		return fmt.Errorf("unsupported scenario file extension %q (want .xlsx, .yaml or .yml)", ext)
	}
}

// Scenario trims identifiers, resolves connection endpoints against the centers
// (case-insensitively) and builds the validated scenario.
func (d *Document) Scenario() (*sim.ScenarioData, error) {
	centers := make([]sim.ProductionCenter, 0, len(d.Centers))
	canonical := make(map[string]string, len(d.Centers))
	for i, row := range d.Centers {
		id := strings.TrimSpace(row.ID)
		key := strings.ToLower(id)
		if prev, dup := canonical[key]; dup && id != "" {
			return nil, fmt.Errorf("%w: center #%d id %q duplicates %q", sim.ErrScenarioMalformed, i+1, id, prev)
		}
		canonical[key] = id
		name := strings.TrimSpace(row.Name)
		if name == "" {
			name = id
		}
		centers = append(centers, sim.ProductionCenter{
			ID:          id,
			Name:        name,
			Performance: row.Performance,
			MaxWorkers:  row.MaxWorkers,
		})
	}

	connections := make([]sim.Connection, 0, len(d.Connections))
	for _, row := range d.Connections {
		connections = append(connections, sim.Connection{
			FromID: resolve(canonical, row.Source),
			ToID:   resolve(canonical, row.Dest),
		})
	}
	return sim.NewScenarioData(centers, connections, d.WorkersCount, d.DetailsCount)
}

// resolve maps an endpoint to the declared center ID, or returns it trimmed if unknown.
func resolve(canonical map[string]string, id string) string {
	id = strings.TrimSpace(id)
	if c, ok := canonical[strings.ToLower(id)]; ok {
		return c
	}
	return id
}

// ExampleDocument returns a small diamond scenario, used as a starting template.
func ExampleDocument() *Document {
	return &Document{
		WorkersCount: 2,
		DetailsCount: 4,
		Centers: []CenterRow{
			{ID: "1", Name: "Cutting", Performance: 1, MaxWorkers: 2},
			{ID: "2", Name: "Welding", Performance: 2, MaxWorkers: 2},
			{ID: "3", Name: "Painting", Performance: 1.5, MaxWorkers: 1},
			{ID: "4", Name: "Packing", Performance: 0.5, MaxWorkers: 2},
		},
		Connections: []ConnectionRow{
			{Source: "1", Dest: "2"},
			{Source: "1", Dest: "3"},
			{Source: "2", Dest: "4"},
			{Source: "3", Dest: "4"},
		},
	}
}
