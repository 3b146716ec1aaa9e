// Implements the worker allocator: the per-tick redistribution of the global worker pool
// over the centers, and the excess trim applied when assignments overshoot the pool.

package sim

import (
	"cmp"
	"slices"

	"github.com/addrummond/heap"
)

// Regime identifies which redistribution rule produced an allocation.
type Regime string

const (
	// RegimeAbundant is used when workersCount >= number of centers: assignments are
	// recomputed from scratch every tick.
	RegimeAbundant Regime = "abundant"
	// RegimeScarce is used when workersCount < number of centers: assignments at centers that
	// still have work are kept across ticks and only the free workers are redistributed.
	RegimeScarce Regime = "scarce"
)

// Allocation is the outcome of one Allocate call.
type Allocation struct {
	Workers Assignments
	Regime  Regime
}

// Allocate computes the worker assignments for the given buffer sizes.
// current is the previous published assignment and is never modified.
//
// Guarantees: total <= WorkersCount, every center <= its MaxWorkers, and a center with an
// empty buffer gets 0. The result depends only on the inputs, so calling Allocate again on
// its own output with unchanged buffers returns the same assignments.
func Allocate(sd *ScenarioData, sizes map[string]int, current Assignments) Allocation {
	if sd.WorkersCount >= len(sd.Centers) {
		return Allocation{Workers: allocateAbundant(sd, sizes), Regime: RegimeAbundant}
	}
	return Allocation{Workers: allocateScarce(sd, sizes, current), Regime: RegimeScarce}
}

// allocateAbundant resets every assignment and hands workers out in descending load order.
func allocateAbundant(sd *ScenarioData, sizes map[string]int) Assignments {
	next := make(Assignments, len(sd.Centers))
	for _, c := range sd.Centers {
		next[c.ID] = 0
	}
	remaining := sd.WorkersCount
	for _, c := range sortByLoad(sd.Centers, sizes) {
		if remaining <= 0 {
			break
		}
		n := min(sizes[c.ID], c.MaxWorkers, remaining)
		next[c.ID] = n
		remaining -= n
	}
	return next
}

// allocateScarce releases workers from drained centers, keeps the others in place and tops up
// the loaded centers with whatever is left of the pool.
func allocateScarce(sd *ScenarioData, sizes map[string]int, current Assignments) Assignments {
	next := make(Assignments, len(sd.Centers))
	for _, c := range sd.Centers {
		// Clamped to the buffer: an empty buffer releases everything.
		next[c.ID] = max(0, min(current[c.ID], sizes[c.ID], c.MaxWorkers))
	}

	remaining := sd.WorkersCount - next.Total()
	if remaining <= 0 {
		return next
	}
	for _, c := range sortByLoad(sd.Centers, sizes) {
		size := sizes[c.ID]
		if size == 0 {
			continue
		}
		assigned := next[c.ID]
		n := min(size-assigned, c.MaxWorkers-assigned, remaining)
		if n <= 0 {
			continue
		}
		next[c.ID] = assigned + n
		remaining -= n
		if remaining == 0 {
			break
		}
	}
	return next
}

// sortByLoad returns a copy of centers ordered by descending bufferSize*performance.
// Ties keep declaration order.
func sortByLoad(centers []ProductionCenter, sizes map[string]int) []ProductionCenter {
	sorted := slices.Clone(centers)
	slices.SortStableFunc(sorted, func(a, b ProductionCenter) int {
		return cmp.Compare(float64(sizes[b.ID])*b.Performance, float64(sizes[a.ID])*a.Performance)
	})
	return sorted
}

// trimEntry orders centers for the excess trim: most workers first, then declaration order.
type trimEntry struct {
	id      string
	workers int
	rank    int
}

func (a *trimEntry) Cmp(b *trimEntry) int {
	if c := cmp.Compare(a.workers, b.workers); c != 0 {
		return c
	}
	return cmp.Compare(b.rank, a.rank)
}

// TrimExcess brings the total of a back down to limit by visiting centers in descending
// order of assignment and removing min(assignment, remaining excess) from each.
// order lists the center IDs in declaration order and breaks ties. Returns the number of
// workers removed.
func TrimExcess(a Assignments, order []string, limit int) int {
	excess := a.Total() - limit
	if excess <= 0 {
		return 0
	}
	var h heap.Heap[trimEntry, heap.Max]
	for rank, id := range order {
		heap.PushOrderable(&h, trimEntry{id: id, workers: a[id], rank: rank})
	}
	removed := 0
	for excess > 0 {
		e, ok := heap.PopOrderable(&h)
		if !ok || e.workers == 0 {
			break
		}
		cut := min(e.workers, excess)
		a[e.id] = e.workers - cut
		excess -= cut
		removed += cut
	}
	return removed
}
