package trace

import (
	"fmt"
	"sync"
	"testing"
)

func TestSimulationTrace_RecordAllocation_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN an allocation record is recorded
	st.RecordAllocation(AllocationRecord{
		Clock:   3,
		Regime:  "scarce",
		Workers: map[string]int{"A": 1, "B": 0},
	})

	// THEN the trace contains one allocation record with correct data
	if len(st.Allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(st.Allocations))
	}
	if st.Allocations[0].Regime != "scarce" {
		t.Errorf("expected regime scarce, got %s", st.Allocations[0].Regime)
	}
	if st.Allocations[0].Workers["A"] != 1 {
		t.Errorf("expected 1 worker at A, got %d", st.Allocations[0].Workers["A"])
	}
}

func TestSimulationTrace_RecordRouting_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN a routing record is recorded
	st.RecordRouting(RoutingRecord{
		DetailID: "Detail-1",
		Clock:    0,
		Source:   "A",
		Target:   "B",
		Reason:   "least-weight (weight=0.000)",
	})

	// THEN the trace contains one routing record with correct data
	if len(st.Routings) != 1 {
		t.Fatalf("expected 1 routing, got %d", len(st.Routings))
	}
	if st.Routings[0].Target != "B" {
		t.Errorf("expected target B, got %s", st.Routings[0].Target)
	}
}

func TestSimulationTrace_ConcurrentRecording_KeepsEveryRecord(t *testing.T) {
	// GIVEN a trace shared by many goroutines
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN 50 goroutines record one routing each
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.RecordRouting(RoutingRecord{DetailID: fmt.Sprintf("Detail-%d", i), Source: "A", Target: "B"})
		}(i)
	}
	wg.Wait()

	// THEN no record is lost
	if len(st.Routings) != 50 {
		t.Errorf("expected 50 routings, got %d", len(st.Routings))
	}
}

func TestTraceConfig_Enabled(t *testing.T) {
	if (TraceConfig{}).Enabled() {
		t.Error("empty level must disable tracing")
	}
	if (TraceConfig{Level: TraceLevelNone}).Enabled() {
		t.Error("none must disable tracing")
	}
	if !(TraceConfig{Level: TraceLevelDecisions}).Enabled() {
		t.Error("decisions must enable tracing")
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true}, // empty defaults to none
		{"detailed", false},
		{"foobar", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
