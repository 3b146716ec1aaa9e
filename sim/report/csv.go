// Package report writes simulation results to files: the CSV result log and buffer charts.
package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/production-sim/production-sim/sim"
)

// CSVHeader is the first line of every result file.
const CSVHeader = "Time, ProductionCenter, WorkersCount, BufferCount"

// ErrBadResultFile reports a result file that does not follow the CSV result format.
var ErrBadResultFile = errors.New("malformed result file")

// WriteCSV writes the header and one line per result, in order.
func WriteCSV(w io.Writer, results []sim.SimulationResult) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, CSVHeader); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintln(bw, r.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteCSVFile creates (or truncates) path and writes the results to it.
func WriteCSVFile(path string, results []sim.SimulationResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating result file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing result file: %w", cerr)
		}
	}()
	if err := WriteCSV(f, results); err != nil {
		return fmt.Errorf("writing result file: %w", err)
	}
	return nil
}

// ReadCSV parses a result log written by WriteCSV.
func ReadCSV(r io.Reader) ([]sim.SimulationResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 4

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrBadResultFile, err)
	}
	if header[0] != "Time" {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrBadResultFile, header)
	}

	var results []sim.SimulationResult
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadResultFile, err)
		}
		res, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadResultFile, line, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) ([]sim.SimulationResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening result file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func parseRecord(rec []string) (sim.SimulationResult, error) {
	t, err := strconv.ParseFloat(rec[0], 64)
	if err != nil {
		return sim.SimulationResult{}, fmt.Errorf("time: %w", err)
	}
	workers, err := strconv.Atoi(rec[2])
	if err != nil {
		return sim.SimulationResult{}, fmt.Errorf("workers: %w", err)
	}
	buffer, err := strconv.Atoi(rec[3])
	if err != nil {
		return sim.SimulationResult{}, fmt.Errorf("buffer: %w", err)
	}
	return sim.SimulationResult{Time: t, ProductionCenter: rec[1], WorkersCount: workers, BufferCount: buffer}, nil
}
