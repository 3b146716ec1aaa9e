package sim

import "fmt"

// SimulationResult is one row of the result log: the state of one center at the end of one tick.
type SimulationResult struct {
	Time             float64 `json:"time"`
	ProductionCenter string  `json:"production_center"` // center name
	WorkersCount     int     `json:"workers_count"`
	BufferCount      int     `json:"buffer_count"`
}

// String renders the row in the result-file format: "<time two-decimals>, <name>, <workers>, <buffer>".
func (r SimulationResult) String() string {
	return fmt.Sprintf("%.2f, %s, %d, %d", r.Time, r.ProductionCenter, r.WorkersCount, r.BufferCount)
}

// recordResults appends one row per center in declaration order.
func recordResults(st *State, sd *ScenarioData) {
	for _, c := range sd.Centers {
		st.Results = append(st.Results, SimulationResult{
			Time:             st.Clock,
			ProductionCenter: c.Name,
			WorkersCount:     st.Workers[c.ID],
			BufferCount:      st.BufferSize(c.ID),
		})
	}
}
