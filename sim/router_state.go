package sim

// RouterState provides the routing policy with a read-only view of the runtime.
// Built by the simulator for every routed detail; tests may construct it directly.
//
// Buffer sizes are read live from State (they move during a tick), while State.Workers is the
// assignment published at the start of the tick and is never written by the router.
type RouterState struct {
	Scenario *ScenarioData
	State    *State
	Visited  map[string]bool // centers already traversed by the detail; seeded with the source
	Nudge    bool            // re-run the allocator when a candidate has no workers
}

// NewRouterState seeds Visited with the source center, which is the only call pattern the
// simulator uses: every routing decision is a single hop.
func NewRouterState(sd *ScenarioData, st *State, sourceID string, nudge bool) *RouterState {
	return &RouterState{
		Scenario: sd,
		State:    st,
		Visited:  map[string]bool{sourceID: true},
		Nudge:    nudge,
	}
}

// workersView returns the assignments the router weighs candidates with. When nudging and
// any unvisited candidate has no workers, it is a fresh allocation over the current buffer
// sizes; the published assignments stay untouched.
func (rs *RouterState) workersView(candidates []Connection) (Assignments, bool) {
	if !rs.Nudge {
		return rs.State.Workers, false
	}
	for _, conn := range candidates {
		if rs.Visited[conn.ToID] {
			continue
		}
		if rs.State.Workers[conn.ToID] == 0 {
			alloc := Allocate(rs.Scenario, rs.State.BufferSizes(), rs.State.Workers)
			return alloc.Workers, true
		}
	}
	return rs.State.Workers, false
}
