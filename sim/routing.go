package sim

import "fmt"

// RoutingDecision encapsulates where a processed detail goes next.
// Exactly one of Target, Terminal and Stay is meaningful.
type RoutingDecision struct {
	Target   string             // Destination center ID (set unless Terminal or Stay)
	Terminal bool               // The source has no outgoing connections: the detail leaves the system
	Stay     bool               // The source is the start center and has no outgoing connections
	Reason   string             // Human-readable explanation
	Scores   map[string]float64 // Candidate center ID -> weight (nil when no candidate was weighed)
	Nudged   bool               // Weights were computed from a fresh allocation
}

// RoutingPolicy decides which successor buffer a processed detail is enqueued into.
// Implementations must not modify the runtime state.
type RoutingPolicy interface {
	Route(source ProductionCenter, state *RouterState) (RoutingDecision, error)
}

// NewRoutingPolicy creates a routing policy by name. Empty defaults to "least-weight".
// Panics on unrecognized names.
func NewRoutingPolicy(name string) RoutingPolicy {
	switch name {
	case "", "least-weight":
		return &LeastWeight{}
	default:
		panic(fmt.Sprintf("unknown routing policy %q", name))
	}
}

// LeastWeight routes a detail to the unvisited successor d with the minimum
//
//	w(d) = performance(d) * bufferSize(d) / (maxWorkers(d) - workers(d) + 1)
//
// so that the detail prefers little pending work and free capacity.
// Ties are broken by first occurrence in outgoing-connection order (strict <).
type LeastWeight struct{}

// Route implements RoutingPolicy for LeastWeight.
func (lw *LeastWeight) Route(source ProductionCenter, rs *RouterState) (RoutingDecision, error) {
	sd := rs.Scenario
	candidates := sd.Outgoing(source.ID)
	if len(candidates) == 0 {
		if source.ID == sd.StartCenterID {
			return RoutingDecision{Stay: true, Reason: "start center has no outgoing connections"}, nil
		}
		return RoutingDecision{Terminal: true, Reason: "delivered"}, nil
	}

	workers, nudged := rs.workersView(candidates)
	scores := make(map[string]float64, len(candidates))
	bestIdx := -1
	bestWeight := 0.0
	for i, conn := range candidates {
		if rs.Visited[conn.ToID] {
			continue
		}
		dest, ok := sd.Center(conn.ToID)
		if !ok {
			return RoutingDecision{}, fmt.Errorf("%w: center %q", ErrBufferMissing, conn.ToID)
		}
		buf, err := rs.State.Buffer(dest.ID)
		if err != nil {
			return RoutingDecision{}, err
		}
		w := dest.Performance * float64(buf.Len()) / float64(dest.MaxWorkers-workers[dest.ID]+1)
		if _, seen := scores[dest.ID]; !seen {
			scores[dest.ID] = w
		}
		if bestIdx < 0 || w < bestWeight {
			bestIdx = i
			bestWeight = w
		}
	}
	if bestIdx < 0 {
		return RoutingDecision{}, fmt.Errorf("%w: every successor of center %q was already visited", ErrRouteExhausted, source.ID)
	}
	return RoutingDecision{
		Target: candidates[bestIdx].ToID,
		Reason: fmt.Sprintf("least-weight (weight=%.3f)", bestWeight),
		Scores: scores,
		Nudged: nudged,
	}, nil
}
