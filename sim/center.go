// Defines the immutable identity records of the production network:
// centers, the directed connections between them, and the detail tokens that flow along them.

package sim

import "fmt"

// ProductionCenter is a node of the routing graph that performs work on details.
// Centers are compared by ID only; the remaining fields are read-only after scenario construction.
type ProductionCenter struct {
	ID          string  // Unique identifier, used as key for buffers and assignments
	Name        string  // Human-readable name, used in the result log
	MaxWorkers  int     // Upper bound on workers assigned to this center in one tick (>= 0)
	Performance float64 // Processing cost per detail in simulation-time units (> 0)
}

func (c ProductionCenter) String() string {
	return fmt.Sprintf("ProductionCenter{id=%q, name=%q, maxWorkers=%d, performance=%.2f}",
		c.ID, c.Name, c.MaxWorkers, c.Performance)
}

// Connection is a directed edge between two centers.
// Duplicate connections are permitted but add nothing to routing.
type Connection struct {
	FromID string
	ToID   string
}

func (c Connection) String() string {
	return fmt.Sprintf("%s->%s", c.FromID, c.ToID)
}

// Detail is an opaque work item. The engine never inspects the label; it only moves
// details between buffers.
type Detail string

// DetailLabel returns the label of the n-th seeded detail (1-based).
func DetailLabel(n int) Detail {
	return Detail(fmt.Sprintf("Detail-%d", n))
}
