package sim

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/production-sim/production-sim/sim/internal/testutil"
	"github.com/production-sim/production-sim/sim/trace"
)

// TestSimulator_GoldenDataset validates the result log of every deterministic golden scenario.
func TestSimulator_GoldenDataset(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	if len(dataset.Tests) == 0 {
		t.Fatal("Golden dataset contains no test cases")
	}

	for _, tc := range dataset.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			centers := make([]ProductionCenter, len(tc.Centers))
			for i, c := range tc.Centers {
				centers[i] = ProductionCenter{ID: c.ID, Name: c.Name, Performance: c.Performance, MaxWorkers: c.MaxWorkers}
			}
			connections := make([]Connection, len(tc.Connections))
			for i, c := range tc.Connections {
				connections[i] = Connection{FromID: c.Source, ToID: c.Dest}
			}
			sd := mustScenario(t, centers, connections, tc.WorkersCount, tc.DetailsCount)

			s, err := NewSimulator(sd, fastConfig())
			require.NoError(t, err)
			require.NoError(t, s.Run(context.Background()))

			rows := make([]string, len(s.Results()))
			for i, r := range s.Results() {
				rows[i] = r.String()
			}
			assert.Equal(t, tc.Expected.Rows, rows)
			assert.Equal(t, tc.Expected.Ticks, s.Metrics.Ticks, "ticks")
			assert.Equal(t, tc.Expected.Delivered, s.State.Delivered(), "delivered")
			testutil.AssertFloat64Equal(t, "utilization", tc.Expected.Utilization, s.Metrics.Utilization(), 1e-9)
		})
	}
}

func TestSimulator_LinearTwoCenter_FourRows(t *testing.T) {
	// GIVEN A -> B, one worker, one detail
	sd := linearScenario(t, 2, 1, 1, 1)
	s, err := NewSimulator(sd, fastConfig())
	require.NoError(t, err)

	// WHEN the simulation runs to completion
	require.NoError(t, s.Run(context.Background()))

	// THEN two ticks of two rows each are recorded
	want := []SimulationResult{
		{Time: 0, ProductionCenter: "A", WorkersCount: 1, BufferCount: 0},
		{Time: 0, ProductionCenter: "B", WorkersCount: 0, BufferCount: 1},
		{Time: 1, ProductionCenter: "A", WorkersCount: 0, BufferCount: 0},
		{Time: 1, ProductionCenter: "B", WorkersCount: 1, BufferCount: 0},
	}
	assert.Equal(t, want, s.Results())
	assert.Equal(t, 2.0, s.State.Clock)
	assert.Equal(t, 0, s.State.Workers.Total(), "workers must be released at completion")
}

func TestSimulator_Diamond_ConservesDetails(t *testing.T) {
	// GIVEN the diamond A -> {B, C} -> D with 2 workers and 4 details
	sd := diamondScenario(t, 2, 4)
	s, err := NewSimulator(sd, fastConfig())
	require.NoError(t, err)

	// WHEN stepping tick by tick
	ticks := 0
	for {
		require.Less(t, ticks, 100, "run did not terminate")
		done, err := s.Step(context.Background())
		require.NoError(t, err)
		if done {
			break
		}
		ticks++

		// THEN conservation holds and the pool is never exceeded at every tick boundary
		assert.Equal(t, 4, s.State.Buffered()+s.State.Delivered(), "tick %d", ticks)
		assert.LessOrEqual(t, s.State.Workers.Total(), 2, "tick %d", ticks)
	}

	// AND every detail reaches D and is drained
	assert.Equal(t, 4, s.State.Delivered())
	assert.Len(t, s.Results(), ticks*4)
	for i, r := range s.Results() {
		assert.Equal(t, sd.Centers[i%4].Name, r.ProductionCenter, "rows follow declaration order")
		assert.Equal(t, float64(i/4), r.Time)
	}
}

func TestSimulator_ZeroDetails_NoRows(t *testing.T) {
	sd := linearScenario(t, 3, 1, 2, 0)
	s, err := NewSimulator(sd, fastConfig())
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background()))

	assert.Empty(t, s.Results())
	assert.Zero(t, s.Metrics.Ticks)
}

func TestSimulator_Step_AfterCompletion_StaysDone(t *testing.T) {
	sd := linearScenario(t, 2, 1, 1, 1)
	s, err := NewSimulator(sd, fastConfig())
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))

	done, err := s.Step(context.Background())

	require.NoError(t, err)
	assert.True(t, done)
	assert.Len(t, s.Results(), 4)
}

func TestSimulator_NoWorkers_Stalls(t *testing.T) {
	tests := []struct {
		name string
		sd   func(t *testing.T) *ScenarioData
	}{
		{
			name: "empty pool",
			sd:   func(t *testing.T) *ScenarioData { return linearScenario(t, 2, 1, 0, 2) },
		},
		{
			name: "start center takes no workers",
			sd: func(t *testing.T) *ScenarioData {
				return mustScenario(t,
					[]ProductionCenter{testCenter("A", 1, 0), testCenter("B", 1, 1)},
					[]Connection{{FromID: "A", ToID: "B"}},
					1, 2)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSimulator(tt.sd(t), fastConfig())
			require.NoError(t, err)

			err = s.Run(context.Background())

			assert.ErrorIs(t, err, ErrStalled)
			assert.Empty(t, s.Results())
			assert.Equal(t, 2, s.State.Buffered())
		})
	}
}

func TestSimulator_MaxTicks_StopsWithTickLimit(t *testing.T) {
	// GIVEN a run that needs 2 ticks, limited to 1
	sd := linearScenario(t, 2, 1, 1, 1)
	cfg := fastConfig()
	cfg.MaxTicks = 1
	s, err := NewSimulator(sd, cfg)
	require.NoError(t, err)

	// WHEN run
	err = s.Run(context.Background())

	// THEN it fails after the first tick, which stays recorded
	assert.ErrorIs(t, err, ErrTickLimit)
	assert.Len(t, s.Results(), 2)
}

func TestSimulator_Cancelled_ReturnsDetailsToBuffer(t *testing.T) {
	// GIVEN 3 details, 2 workers at A and a service time far beyond the deadline
	sd := linearScenario(t, 2, 2, 2, 3)
	cfg := DefaultConfig()
	cfg.ServiceTimeScale = time.Hour
	s, err := NewSimulator(sd, cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// WHEN the run is interrupted mid-tick
	err = s.Run(ctx)

	// THEN the interruption is reported and the window is back at the head of A, in order
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Empty(t, s.Results(), "a failed tick is not recorded")
	assert.Equal(t, []Detail{"Detail-1", "Detail-2", "Detail-3"}, s.State.Buffers["A"].Items())
	assert.Equal(t, 3, s.State.Buffered()+s.State.Delivered())
}

func TestSimulator_CancelledBeforeStart(t *testing.T) {
	sd := linearScenario(t, 2, 1, 1, 1)
	s, err := NewSimulator(sd, fastConfig())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Step(ctx)

	if !errors.Is(err, ErrInterrupted) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected ErrInterrupted wrapping context.Canceled, got %v", err)
	}
	assert.Equal(t, 1, s.State.BufferSize("A"))
}

func TestSimulator_ServiceTime_Sleeps(t *testing.T) {
	// GIVEN two ticks of performance 1 at 5ms per unit
	sd := linearScenario(t, 2, 1, 1, 1)
	cfg := DefaultConfig()
	cfg.ServiceTimeScale = 5 * time.Millisecond
	s, err := NewSimulator(sd, cfg)
	require.NoError(t, err)

	// WHEN run
	require.NoError(t, s.Run(context.Background()))

	// THEN at least both service times elapsed
	assert.GreaterOrEqual(t, s.Metrics.WallTime, 10*time.Millisecond)
}

func TestSimulator_ParallelismOne_Completes(t *testing.T) {
	sd := diamondScenario(t, 2, 4)
	cfg := fastConfig()
	cfg.Parallelism = 1
	s, err := NewSimulator(sd, cfg)
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 4, s.State.Delivered())
}

func TestSimulator_Metrics(t *testing.T) {
	// GIVEN A -> B, one worker, one detail
	sd := linearScenario(t, 2, 1, 1, 1)
	s, err := NewSimulator(sd, fastConfig())
	require.NoError(t, err)

	// WHEN run
	require.NoError(t, s.Run(context.Background()))

	// THEN the metrics describe the two ticks
	m := s.Metrics
	assert.Equal(t, s.RunID, m.RunID)
	assert.Equal(t, 2, m.Ticks)
	assert.Equal(t, 1, m.Delivered)
	assert.Equal(t, 2, m.Processed)
	assert.Equal(t, map[string]int{"A": 1, "B": 1}, m.ProcessedByCenter)
	assert.Equal(t, 2, m.WorkerTicks)
	assert.Equal(t, 2, m.RegimeTicks[RegimeScarce])
	assert.Equal(t, 1, m.Nudges, "B had no workers when A routed to it")
	assert.Equal(t, 1, m.PeakBuffer["A"])
	assert.Equal(t, 1, m.PeakBuffer["B"])
	assert.InDelta(t, 1.0, m.Utilization(), 1e-9)

	var buf bytes.Buffer
	require.NoError(t, m.Print(&buf))
	assert.Contains(t, buf.String(), "=== Simulation Metrics ===")
	assert.Contains(t, buf.String(), `"ticks": 2`)
	assert.Contains(t, buf.String(), `"utilization": 1`)
}

func TestSimulator_Trace_RecordsDecisions(t *testing.T) {
	// GIVEN decision tracing enabled
	sd := linearScenario(t, 3, 1, 1, 2)
	cfg := fastConfig()
	cfg.Trace = trace.TraceConfig{Level: trace.TraceLevelDecisions}
	s, err := NewSimulator(sd, cfg)
	require.NoError(t, err)

	// WHEN run
	require.NoError(t, s.Run(context.Background()))

	// THEN one allocation per tick and one routing per processed detail are recorded
	require.NotNil(t, s.Trace)
	summary := trace.Summarize(s.Trace)
	assert.Equal(t, s.Metrics.Ticks, summary.TotalAllocations)
	assert.Equal(t, s.Metrics.Processed, summary.TotalRoutings)
	assert.Equal(t, 2, summary.Deliveries)
	assert.Equal(t, 2, summary.TargetDistribution["B"])
	assert.Equal(t, 2, summary.TargetDistribution["C"])
}

func TestSimulator_TraceDisabled_NilTrace(t *testing.T) {
	s, err := NewSimulator(linearScenario(t, 2, 1, 1, 1), fastConfig())
	require.NoError(t, err)
	assert.Nil(t, s.Trace)
}

func TestNewSimulator_Invalid(t *testing.T) {
	_, err := NewSimulator(nil, fastConfig())
	assert.ErrorIs(t, err, ErrScenarioMalformed)

	cfg := fastConfig()
	cfg.RoutingPolicy = "random"
	_, err = NewSimulator(linearScenario(t, 2, 1, 1, 1), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewSimulator_SeedsStartBuffer(t *testing.T) {
	s, err := NewSimulator(linearScenario(t, 3, 1, 1, 3), fastConfig())
	require.NoError(t, err)

	assert.Equal(t, []Detail{"Detail-1", "Detail-2", "Detail-3"}, s.State.Buffers["A"].Items())
	assert.Equal(t, Assignments{"A": 0, "B": 0, "C": 0}, s.State.Workers)
	assert.NotEmpty(t, s.RunID)
}
