package sim

import (
	"github.com/stretchr/testify/require"
)

// testCenter builds a center whose name equals its ID.
func testCenter(id string, performance float64, maxWorkers int) ProductionCenter {
	return ProductionCenter{ID: id, Name: id, Performance: performance, MaxWorkers: maxWorkers}
}

// mustScenario builds a scenario or fails the test. Accepts both *testing.T and *rapid.T.
func mustScenario(t require.TestingT, centers []ProductionCenter, connections []Connection, workersCount, detailsCount int) *ScenarioData {
	sd, err := NewScenarioData(centers, connections, workersCount, detailsCount)
	require.NoError(t, err)
	return sd
}

// linearScenario builds c1 -> c2 -> ... -> cn with performance 1 and the given max workers.
func linearScenario(t require.TestingT, n, maxWorkers, workersCount, detailsCount int) *ScenarioData {
	centers := make([]ProductionCenter, n)
	connections := make([]Connection, 0, n-1)
	for i := range centers {
		centers[i] = testCenter(string(rune('A'+i)), 1, maxWorkers)
		if i > 0 {
			connections = append(connections, Connection{FromID: centers[i-1].ID, ToID: centers[i].ID})
		}
	}
	return mustScenario(t, centers, connections, workersCount, detailsCount)
}

// diamondScenario builds A -> {B, C} -> D with maxWorkers 2 everywhere.
func diamondScenario(t require.TestingT, workersCount, detailsCount int) *ScenarioData {
	return mustScenario(t,
		[]ProductionCenter{testCenter("A", 1, 2), testCenter("B", 1, 2), testCenter("C", 1, 2), testCenter("D", 1, 2)},
		[]Connection{{FromID: "A", ToID: "B"}, {FromID: "A", ToID: "C"}, {FromID: "B", ToID: "D"}, {FromID: "C", ToID: "D"}},
		workersCount, detailsCount)
}

// fastConfig returns the default configuration without service sleeps.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.ServiceTimeScale = 0
	return cfg
}

// setBuffer replaces the contents of a center's buffer with n details.
func setBuffer(st *State, id string, n int) {
	b := st.Buffers[id]
	b.DequeueUpTo(b.Len())
	for i := 1; i <= n; i++ {
		b.Enqueue(Detail(id + "-" + string(DetailLabel(i))))
	}
}
