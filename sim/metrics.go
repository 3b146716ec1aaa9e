// Tracks simulation-wide and per-center statistics such as:
// ticks run, details delivered, worker utilisation and peak buffer sizes.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Metrics aggregates statistics about the simulation for final reporting.
// Updated by the orchestrator at tick boundaries only.
type Metrics struct {
	RunID          string `json:"run_id"`
	Ticks          int    `json:"ticks"`
	DetailsCount   int    `json:"details_count"`
	Delivered      int    `json:"delivered"`
	Processed      int    `json:"processed"`       // details served by any center
	Nudges         int    `json:"nudges"`          // routing decisions weighed on a fresh allocation
	TrimmedWorkers int    `json:"trimmed_workers"` // workers removed by the excess trim
	WorkerTicks    int    `json:"worker_ticks"`    // sum over ticks of assigned workers
	WorkersCount   int    `json:"workers_count"`

	RegimeTicks       map[Regime]int `json:"regime_ticks"`
	ProcessedByCenter map[string]int `json:"processed_by_center"` // center ID -> details served
	PeakBuffer        map[string]int `json:"peak_buffer"`         // center ID -> max buffer seen at a tick boundary

	WallTime time.Duration `json:"wall_time_ns"`
}

// NewMetrics creates a Metrics with initialized maps.
func NewMetrics() *Metrics {
	return &Metrics{
		RegimeTicks:       make(map[Regime]int),
		ProcessedByCenter: make(map[string]int),
		PeakBuffer:        make(map[string]int),
	}
}

// Utilization returns the fraction of worker-ticks that were assigned.
func (m *Metrics) Utilization() float64 {
	if m.Ticks == 0 || m.WorkersCount == 0 {
		return 0
	}
	return float64(m.WorkerTicks) / float64(m.Ticks*m.WorkersCount)
}

// observePeaks updates the per-center peak buffer sizes.
func (m *Metrics) observePeaks(st *State) {
	for id, b := range st.Buffers {
		if n := b.Len(); n > m.PeakBuffer[id] {
			m.PeakBuffer[id] = n
		}
	}
}

// Print writes the metrics as indented JSON under a "Simulation Metrics" header.
func (m *Metrics) Print(w io.Writer) error {
	out := struct {
		*Metrics
		Utilization float64 `json:"utilization"`
	}{m, m.Utilization()}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metrics: %w", err)
	}
	if _, err := fmt.Fprintln(w, "=== Simulation Metrics ==="); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
