package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAllocations   int
	RegimeDistribution map[string]int // regime -> ticks
	TotalTrimmed       int
	TotalRoutings      int
	Deliveries         int
	NudgeCount         int
	UniqueTargets      int
	TargetDistribution map[string]int // center ID -> details routed there
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		RegimeDistribution: make(map[string]int),
		TargetDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	summary.TotalAllocations = len(st.Allocations)
	for _, a := range st.Allocations {
		summary.RegimeDistribution[a.Regime]++
		summary.TotalTrimmed += a.Trimmed
	}

	summary.TotalRoutings = len(st.Routings)
	for _, r := range st.Routings {
		if r.Nudged {
			summary.NudgeCount++
		}
		switch {
		case r.Terminal:
			summary.Deliveries++
		case r.Target != "":
			summary.TargetDistribution[r.Target]++
		}
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
