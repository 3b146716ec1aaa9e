package trace

import "sync"

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every allocation and routing decision.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel `yaml:"level"`
}

// Enabled reports whether decisions should be recorded.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelDecisions
}

// SimulationTrace collects decision records during a simulation.
// Routing records arrive from concurrent processing sub-tasks, so recording is synchronized.
type SimulationTrace struct {
	Config      TraceConfig
	Allocations []AllocationRecord
	Routings    []RoutingRecord

	mu sync.Mutex
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Allocations: make([]AllocationRecord, 0),
		Routings:    make([]RoutingRecord, 0),
	}
}

// RecordAllocation appends an allocation decision record.
func (st *SimulationTrace) RecordAllocation(record AllocationRecord) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.Allocations = append(st.Allocations, record)
}

// RecordRouting appends a routing decision record.
func (st *SimulationTrace) RecordRouting(record RoutingRecord) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.Routings = append(st.Routings, record)
}
