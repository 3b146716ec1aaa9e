// Package trace provides decision-trace recording for allocator and router analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// AllocationRecord captures the worker assignment published for one tick.
type AllocationRecord struct {
	Clock   int64
	Regime  string         // "abundant" or "scarce"
	Workers map[string]int // center ID -> workers, after the excess trim
	Trimmed int            // workers removed by the excess trim (normally 0)
}

// RoutingRecord captures a single routing decision for one processed detail.
type RoutingRecord struct {
	DetailID string
	Clock    int64
	Source   string             // center that processed the detail
	Target   string             // chosen successor; empty when Terminal or Stayed
	Terminal bool               // detail left the system
	Stayed   bool               // detail was put back into the source buffer
	Nudged   bool               // weights came from a fresh allocation
	Reason   string
	Scores   map[string]float64 // candidate center ID -> weight (may be nil)
}
