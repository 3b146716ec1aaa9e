package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/production-sim/production-sim/sim"
)

type sheetRows struct {
	name string
	rows [][]any
}

// writeSheets builds a workbook from raw rows; nil cells are left blank.
func writeSheets(t *testing.T, sheets ...sheetRows) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for _, s := range sheets {
		_, err := f.NewSheet(s.name)
		require.NoError(t, err)
		for i, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))
	path := filepath.Join(t.TempDir(), "scenario.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func validSheets() []sheetRows {
	return []sheetRows{
		{SheetScenario, [][]any{{"workersCount", "detailsCount"}, {1, 1}}},
		{SheetCenters, [][]any{{"id", "name", "performance", "maxWorkers"}, {"A", "Alpha", 1.0, 1}, {"B", "Beta", 2.5, 1}}},
		{SheetEdges, [][]any{{"sourceCenter", "destCenter"}, {"A", "B"}}},
	}
}

func TestWorkbook_RoundTrip(t *testing.T) {
	// GIVEN the example document written as a workbook
	path := filepath.Join(t.TempDir(), "example.xlsx")
	require.NoError(t, WriteWorkbook(path, ExampleDocument()))

	// WHEN it is loaded
	sd, err := Load(path)

	// THEN the scenario matches the document
	require.NoError(t, err)
	assert.Equal(t, 2, sd.WorkersCount)
	assert.Equal(t, 4, sd.DetailsCount)
	assert.Equal(t, []string{"1", "2", "3", "4"}, sd.CenterIDs())
	assert.Equal(t, "1", sd.StartCenterID)
	assert.Equal(t, "4", sd.EndCenterID)
	c, ok := sd.Center("3")
	require.True(t, ok)
	assert.Equal(t, sim.ProductionCenter{ID: "3", Name: "Painting", Performance: 1.5, MaxWorkers: 1}, c)
	assert.Len(t, sd.Connections, 4)
}

func TestReadWorkbook_LenientLayout(t *testing.T) {
	// GIVEN title rows above the headers, mixed-case headers, reordered columns,
	// blank rows, padded IDs and endpoints in a different case
	path := writeSheets(t,
		sheetRows{"scenario", [][]any{
			{"Plant scenario"},
			{"WorkersCount"},
			{3},
			{},
			{"DETAILSCOUNT"},
			{"n/a"},
			{7},
		}},
		sheetRows{"ProductionCenter", [][]any{
			{"Centers of the line"},
			{"Name", "ID", "MaxWorkers", "Performance"},
			{"Cutting", " c1 ", 2, 1.5},
			{},
			{"Packing", "c2", 1, 0.5},
		}},
		sheetRows{"Connection", [][]any{
			{"SourceCenter", "DestCenter"},
			{"C1", "c2 "},
		}},
	)

	// WHEN loaded
	sd, err := Load(path)

	// THEN every value is found
	require.NoError(t, err)
	assert.Equal(t, 3, sd.WorkersCount)
	assert.Equal(t, 7, sd.DetailsCount)
	assert.Equal(t, []string{"c1", "c2"}, sd.CenterIDs())
	assert.Equal(t, "Cutting", sd.Centers[0].Name)
	assert.Equal(t, 2, sd.Centers[0].MaxWorkers)
	assert.Equal(t, 1.5, sd.Centers[0].Performance)
	assert.Equal(t, sim.Connection{FromID: "c1", ToID: "c2"}, sd.Connections[0])
}

func TestReadWorkbook_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]sheetRows) []sheetRows
	}{
		{
			name:   "missing connection sheet",
			mutate: func(s []sheetRows) []sheetRows { return s[:2] },
		},
		{
			name: "missing column",
			mutate: func(s []sheetRows) []sheetRows {
				s[1].rows = [][]any{{"id", "name", "performance"}, {"A", "Alpha", 1.0}, {"B", "Beta", 1.0}}
				return s
			},
		},
		{
			name: "non-numeric performance",
			mutate: func(s []sheetRows) []sheetRows {
				s[1].rows[2] = []any{"B", "Beta", "fast", 1}
				return s
			},
		},
		{
			name: "no workers count value",
			mutate: func(s []sheetRows) []sheetRows {
				s[0].rows = [][]any{{"workersCount", "detailsCount"}, {"many", 1}}
				return s
			},
		},
		{
			name: "unresolved endpoint",
			mutate: func(s []sheetRows) []sheetRows {
				s[2].rows = append(s[2].rows, []any{"B", "Z"})
				return s
			},
		},
		{
			name: "duplicate id ignoring case",
			mutate: func(s []sheetRows) []sheetRows {
				s[1].rows = append(s[1].rows, []any{"b", "Beta again", 1.0, 1})
				return s
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSheets(t, tt.mutate(validSheets())...)
			_, err := Load(path)
			assert.ErrorIs(t, err, sim.ErrScenarioMalformed)
		})
	}
}

func TestReadYAML_Valid(t *testing.T) {
	// GIVEN a YAML scenario
	path := filepath.Join(t.TempDir(), "line.yaml")
	content := `workers_count: 1
details_count: 2
centers:
  - {id: A, name: Alpha, performance: 1, max_workers: 1}
  - {id: B, performance: 2, max_workers: 1}
connections:
  - {source_center: A, dest_center: B}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// WHEN loaded
	sd, err := Load(path)

	// THEN the scenario is built and a missing name defaults to the ID
	require.NoError(t, err)
	assert.Equal(t, "A", sd.StartCenterID)
	assert.Equal(t, "B", sd.EndCenterID)
	assert.Equal(t, "B", sd.Centers[1].Name)
	assert.Equal(t, 2, sd.DetailsCount)
}

func TestReadYAML_UnknownField_Rejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 1\n"), 0o644))

	_, err := Load(path)

	assert.ErrorIs(t, err, sim.ErrScenarioMalformed)
}

func TestYAML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.yaml")
	require.NoError(t, Save(path, ExampleDocument()))

	doc, err := ReadDocument(path)

	require.NoError(t, err)
	assert.Equal(t, ExampleDocument(), doc)
}

func TestLoad_UnknownExtension(t *testing.T) {
	_, err := Load("scenario.csv")
	assert.ErrorIs(t, err, sim.ErrScenarioMalformed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.xlsx"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, sim.ErrScenarioMalformed)
}
