// Package testutil provides shared test infrastructure for the production simulator.
// It holds the golden dataset types and assertion helpers used by the sim/ tests.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one deterministic scenario and the run it must produce.
// Only scenarios without branching are recorded: with a single successor per center the
// result log does not depend on the order in which sub-tasks finish.
type GoldenTestCase struct {
	Name         string             `json:"name"`
	WorkersCount int                `json:"workers_count"`
	DetailsCount int                `json:"details_count"`
	Centers      []GoldenCenter     `json:"centers"`
	Connections  []GoldenConnection `json:"connections"`
	Expected     GoldenRun          `json:"expected"`
}

// GoldenCenter mirrors one production center row.
type GoldenCenter struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Performance float64 `json:"performance"`
	MaxWorkers  int     `json:"max_workers"`
}

// GoldenConnection mirrors one connection row.
type GoldenConnection struct {
	Source string `json:"source_center"`
	Dest   string `json:"dest_center"`
}

// GoldenRun holds the expected outcome of a run.
type GoldenRun struct {
	Ticks       int      `json:"ticks"`
	Delivered   int      `json:"delivered"`
	Utilization float64  `json:"utilization"`
	Rows        []string `json:"rows"` // result rows in CSV body format
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
