package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/production-sim/production-sim/sim"
)

// Sheet and column names of the spreadsheet layout. Matching is case-insensitive.
const (
	SheetScenario = "Scenario"
	SheetCenters  = "ProductionCenter"
	SheetEdges    = "Connection"

	colWorkersCount = "workersCount"
	colDetailsCount = "detailsCount"
	colID           = "id"
	colName         = "name"
	colPerformance  = "performance"
	colMaxWorkers   = "maxWorkers"
	colSource       = "sourceCenter"
	colDest         = "destCenter"
)

// ReadWorkbook decodes the three-sheet spreadsheet layout:
//
//	Scenario:         workersCount | detailsCount
//	ProductionCenter: id | name | performance | maxWorkers
//	Connection:       sourceCenter | destCenter
//
// Each sheet's header is the first row holding the sheet's key column; blank rows below it
// are skipped.
func ReadWorkbook(path string) (*Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logrus.Warnf("closing workbook %s: %v", path, err)
		}
	}()

	doc := &Document{}

	scenario, err := readTable(f, SheetScenario, colWorkersCount)
	if err != nil {
		return nil, err
	}
	if doc.WorkersCount, err = scenario.firstInt(colWorkersCount); err != nil {
		return nil, err
	}
	// detailsCount may sit under its own header row.
	if _, ok := scenario.cols[strings.ToLower(colDetailsCount)]; !ok {
		if scenario, err = readTable(f, SheetScenario, colDetailsCount); err != nil {
			return nil, err
		}
	}
	if doc.DetailsCount, err = scenario.firstInt(colDetailsCount); err != nil {
		return nil, err
	}

	centers, err := readTable(f, SheetCenters, colID)
	if err != nil {
		return nil, err
	}
	err = centers.eachRow(func(r record) error {
		perf, err := r.number(colPerformance)
		if err != nil {
			return err
		}
		maxWorkers, err := r.integer(colMaxWorkers)
		if err != nil {
			return err
		}
		row := CenterRow{ID: r.text(colID), Name: r.text(colName), Performance: perf, MaxWorkers: maxWorkers}
		logrus.Debugf("Read center: %+v", row)
		doc.Centers = append(doc.Centers, row)
		return nil
	}, colID, colName, colPerformance, colMaxWorkers)
	if err != nil {
		return nil, err
	}

	edges, err := readTable(f, SheetEdges, colSource)
	if err != nil {
		return nil, err
	}
	err = edges.eachRow(func(r record) error {
		doc.Connections = append(doc.Connections, ConnectionRow{Source: r.text(colSource), Dest: r.text(colDest)})
		return nil
	}, colSource, colDest)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// table is the part of a sheet from its header row down.
type table struct {
	sheet  string
	header int            // 0-based row index of the header
	cols   map[string]int // lower-cased header -> column index
	rows   [][]string
}

// readTable locates the sheet (case-insensitively) and the first row containing key.
func readTable(f *excelize.File, sheet, key string) (*table, error) {
	name := ""
	for _, s := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(s), sheet) {
			name = s
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: sheet %q not found", sim.ErrScenarioMalformed, sheet)
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %w", sim.ErrScenarioMalformed, name, err)
	}
	for i, row := range rows {
		cols := make(map[string]int, len(row))
		found := false
		for j, cell := range row {
			h := strings.ToLower(strings.TrimSpace(cell))
			if h == "" {
				continue
			}
			if _, dup := cols[h]; !dup {
				cols[h] = j
			}
			if h == strings.ToLower(key) {
				found = true
			}
		}
		if found {
			return &table{sheet: name, header: i, cols: cols, rows: rows}, nil
		}
	}
	return nil, fmt.Errorf("%w: sheet %q has no header row with column %q", sim.ErrScenarioMalformed, name, key)
}

// record is one data row of a table.
type record struct {
	t   *table
	row []string
	num int // 1-based spreadsheet row number
}

// eachRow calls fn for every non-blank row below the header after checking that
// every required column exists.
func (t *table) eachRow(fn func(record) error, required ...string) error {
	for _, c := range required {
		if _, ok := t.cols[strings.ToLower(c)]; !ok {
			return fmt.Errorf("%w: sheet %q is missing column %q", sim.ErrScenarioMalformed, t.sheet, c)
		}
	}
	for i := t.header + 1; i < len(t.rows); i++ {
		if blank(t.rows[i]) {
			continue
		}
		if err := fn(record{t: t, row: t.rows[i], num: i + 1}); err != nil {
			return err
		}
	}
	return nil
}

// firstInt returns the first numeric value below the header in the given column.
func (t *table) firstInt(col string) (int, error) {
	if _, ok := t.cols[strings.ToLower(col)]; !ok {
		return 0, fmt.Errorf("%w: sheet %q is missing column %q", sim.ErrScenarioMalformed, t.sheet, col)
	}
	for i := t.header + 1; i < len(t.rows); i++ {
		r := record{t: t, row: t.rows[i], num: i + 1}
		if r.text(col) == "" {
			continue
		}
		if v, err := r.integer(col); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: sheet %q has no numeric value for %q", sim.ErrScenarioMalformed, t.sheet, col)
}

func (r record) text(col string) string {
	j, ok := r.t.cols[strings.ToLower(col)]
	if !ok || j >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[j])
}

func (r record) number(col string) (float64, error) {
	s := r.text(col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: sheet %q row %d: %s %q is not a number", sim.ErrScenarioMalformed, r.t.sheet, r.num, col, s)
	}
	return v, nil
}

// integer reads a numeric cell and truncates it toward zero.
func (r record) integer(col string) (int, error) {
	v, err := r.number(col)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// WriteWorkbook writes doc in the layout ReadWorkbook expects.
func WriteWorkbook(path string, doc *Document) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logrus.Warnf("closing workbook %s: %v", path, err)
		}
	}()

	scenario := [][]any{
		{colWorkersCount, colDetailsCount},
		{doc.WorkersCount, doc.DetailsCount},
	}
	centers := [][]any{{colID, colName, colPerformance, colMaxWorkers}}
	for _, c := range doc.Centers {
		centers = append(centers, []any{c.ID, c.Name, c.Performance, c.MaxWorkers})
	}
	edges := [][]any{{colSource, colDest}}
	for _, e := range doc.Connections {
		edges = append(edges, []any{e.Source, e.Dest})
	}

	for _, sheet := range []struct {
		name string
		rows [][]any
	}{
		{SheetScenario, scenario},
		{SheetCenters, centers},
		{SheetEdges, edges},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sheet.name, err)
		}
		for i, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				return fmt.Errorf("writing sheet %q row %d: %w", sheet.name, i+1, err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
