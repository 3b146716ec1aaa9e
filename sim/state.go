// Holds the mutable runtime state of a simulation: per-center buffers, the published worker
// assignments, the clock, the result log and the number of details delivered to the sink.

package sim

import (
	"fmt"
	"sync/atomic"
)

// Assignments maps center ID to the number of workers assigned for the current tick.
type Assignments map[string]int

// Total returns the sum of all assignments.
func (a Assignments) Total() int {
	total := 0
	for _, n := range a {
		total += n
	}
	return total
}

// Clone returns an independent copy.
func (a Assignments) Clone() Assignments {
	out := make(Assignments, len(a))
	for id, n := range a {
		out[id] = n
	}
	return out
}

// State is owned by the orchestrator. During fan-out sub-tasks only read Workers and
// write through the per-center buffers, which are safe for concurrent use.
type State struct {
	Buffers map[string]*Buffer // center ID -> input buffer
	Workers Assignments        // published at tick boundaries only
	Clock   float64            // number of completed ticks
	Results []SimulationResult // append-only, written at tick boundaries only

	delivered atomic.Int64 // details that left the system through a terminal center
}

// NewState creates empty buffers and zero assignments for every center and seeds the
// start center with DetailsCount details labeled Detail-1..Detail-n in order.
func NewState(sd *ScenarioData) *State {
	st := &State{
		Buffers: make(map[string]*Buffer, len(sd.Centers)),
		Workers: make(Assignments, len(sd.Centers)),
		Results: make([]SimulationResult, 0),
	}
	for _, c := range sd.Centers {
		st.Buffers[c.ID] = &Buffer{}
		st.Workers[c.ID] = 0
	}
	start := st.Buffers[sd.StartCenterID]
	for i := 1; i <= sd.DetailsCount; i++ {
		start.Enqueue(DetailLabel(i))
	}
	return st
}

// Buffer returns the buffer of a center or ErrBufferMissing.
func (st *State) Buffer(id string) (*Buffer, error) {
	b, ok := st.Buffers[id]
	if !ok || b == nil {
		return nil, fmt.Errorf("%w: center %q", ErrBufferMissing, id)
	}
	return b, nil
}

// BufferSize returns the instantaneous size of a center's buffer (0 if missing).
func (st *State) BufferSize(id string) int {
	if b, ok := st.Buffers[id]; ok && b != nil {
		return b.Len()
	}
	return 0
}

// BufferSizes snapshots the size of every buffer.
func (st *State) BufferSizes() map[string]int {
	sizes := make(map[string]int, len(st.Buffers))
	for id, b := range st.Buffers {
		sizes[id] = b.Len()
	}
	return sizes
}

// Buffered returns the number of details currently waiting in all buffers.
func (st *State) Buffered() int {
	total := 0
	for _, b := range st.Buffers {
		total += b.Len()
	}
	return total
}

// Delivered returns the number of details that left the system.
func (st *State) Delivered() int {
	return int(st.delivered.Load())
}

func (st *State) markDelivered() {
	st.delivered.Add(1)
}

// allBuffersEmpty reports whether no detail is waiting anywhere.
func (st *State) allBuffersEmpty() bool {
	for _, b := range st.Buffers {
		if b.Len() > 0 {
			return false
		}
	}
	return true
}

// releaseIdle zeroes the assignment of every center whose buffer is empty.
func (st *State) releaseIdle() {
	for id, n := range st.Workers {
		if n > 0 && st.BufferSize(id) == 0 {
			st.Workers[id] = 0
		}
	}
}

// verify checks the tick-boundary invariants that can be observed from the state alone.
func (st *State) verify(sd *ScenarioData) error {
	for _, c := range sd.Centers {
		if _, err := st.Buffer(c.ID); err != nil {
			return err
		}
		if _, ok := st.Workers[c.ID]; !ok {
			return fmt.Errorf("%w: no worker entry for center %q", ErrBufferMissing, c.ID)
		}
	}
	if got := st.Buffered() + st.Delivered(); got != sd.DetailsCount {
		panic(fmt.Sprintf("conservation violated: buffered+delivered=%d, details=%d", got, sd.DetailsCount))
	}
	return nil
}
