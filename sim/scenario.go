// Defines ScenarioData, the validated and immutable description of one simulation:
// the graph, the centers, the global worker pool and the number of details to push through.

package sim

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ScenarioData is the read-only input shared by every engine component.
// Build it with NewScenarioData; the zero value is not usable.
type ScenarioData struct {
	Centers       []ProductionCenter // Declaration order; drives result order and tie-breaks
	Connections   []Connection       // Declaration order; drives routing tie-breaks
	WorkersCount  int                // Size of the global worker pool (>= 0)
	DetailsCount  int                // Details seeded into the start center (>= 0)
	StartCenterID string             // The only center that is a source but never a destination
	EndCenterID   string             // The only center that is a destination but never a source

	index    map[string]int          // center ID -> position in Centers
	outgoing map[string][]Connection // center ID -> outgoing connections in declaration order
}

// NewScenarioData validates the inputs, derives the start and end centers and indexes
// the outgoing connections. Every failure wraps ErrScenarioMalformed.
func NewScenarioData(centers []ProductionCenter, connections []Connection, workersCount, detailsCount int) (*ScenarioData, error) {
	if len(centers) == 0 {
		return nil, fmt.Errorf("%w: no production centers", ErrScenarioMalformed)
	}
	if workersCount < 0 {
		return nil, fmt.Errorf("%w: workersCount must be >= 0, got %d", ErrScenarioMalformed, workersCount)
	}
	if detailsCount < 0 {
		return nil, fmt.Errorf("%w: detailsCount must be >= 0, got %d", ErrScenarioMalformed, detailsCount)
	}

	sd := &ScenarioData{
		Centers:      append([]ProductionCenter(nil), centers...),
		Connections:  append([]Connection(nil), connections...),
		WorkersCount: workersCount,
		DetailsCount: detailsCount,
		index:        make(map[string]int, len(centers)),
		outgoing:     make(map[string][]Connection, len(centers)),
	}

	for i, c := range sd.Centers {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: center #%d has an empty id", ErrScenarioMalformed, i+1)
		}
		if _, dup := sd.index[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate center id %q", ErrScenarioMalformed, c.ID)
		}
		if c.MaxWorkers < 0 {
			return nil, fmt.Errorf("%w: center %q has negative maxWorkers %d", ErrScenarioMalformed, c.ID, c.MaxWorkers)
		}
		if !(c.Performance > 0) {
			return nil, fmt.Errorf("%w: center %q must have positive performance, got %v", ErrScenarioMalformed, c.ID, c.Performance)
		}
		sd.index[c.ID] = i
	}

	for _, conn := range sd.Connections {
		if _, ok := sd.index[conn.FromID]; !ok {
			return nil, fmt.Errorf("%w: connection %s references unknown source center %q", ErrScenarioMalformed, conn, conn.FromID)
		}
		if _, ok := sd.index[conn.ToID]; !ok {
			return nil, fmt.Errorf("%w: connection %s references unknown destination center %q", ErrScenarioMalformed, conn, conn.ToID)
		}
		sd.outgoing[conn.FromID] = append(sd.outgoing[conn.FromID], conn)
	}

	start, end, err := findTerminals(sd.Connections)
	if err != nil {
		return nil, err
	}
	sd.StartCenterID = start
	sd.EndCenterID = end

	if cyclic := sd.cyclicCenters(); len(cyclic) > 0 {
		logrus.Warnf("scenario graph contains a cycle through %s; routing stays single-hop", strings.Join(cyclic, ", "))
	}
	return sd, nil
}

// findTerminals returns the unique source-only and destination-only centers.
func findTerminals(connections []Connection) (string, string, error) {
	sources := make(map[string]bool)
	dests := make(map[string]bool)
	var order []string
	seen := make(map[string]bool)
	for _, conn := range connections {
		sources[conn.FromID] = true
		dests[conn.ToID] = true
		for _, id := range []string{conn.FromID, conn.ToID} {
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
	}

	var starts, ends []string
	for _, id := range order {
		if sources[id] && !dests[id] {
			starts = append(starts, id)
		}
		if dests[id] && !sources[id] {
			ends = append(ends, id)
		}
	}
	if len(starts) != 1 {
		return "", "", fmt.Errorf("%w: expected exactly one start center, found %d %v", ErrScenarioMalformed, len(starts), starts)
	}
	if len(ends) != 1 {
		return "", "", fmt.Errorf("%w: expected exactly one end center, found %d %v", ErrScenarioMalformed, len(ends), ends)
	}
	return starts[0], ends[0], nil
}

// cyclicCenters returns the IDs left over by Kahn's algorithm, i.e. the centers on or behind a cycle.
func (sd *ScenarioData) cyclicCenters() []string {
	indegree := make(map[string]int, len(sd.Centers))
	for _, conn := range sd.Connections {
		indegree[conn.ToID]++
	}
	var ready []string
	for _, c := range sd.Centers {
		if indegree[c.ID] == 0 {
			ready = append(ready, c.ID)
		}
	}
	visited := 0
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		visited++
		for _, conn := range sd.outgoing[id] {
			indegree[conn.ToID]--
			if indegree[conn.ToID] == 0 {
				ready = append(ready, conn.ToID)
			}
		}
	}
	if visited == len(sd.Centers) {
		return nil
	}
	var cyclic []string
	for _, c := range sd.Centers {
		if indegree[c.ID] > 0 {
			cyclic = append(cyclic, c.ID)
		}
	}
	return cyclic
}

// Center returns the center with the given ID.
func (sd *ScenarioData) Center(id string) (ProductionCenter, bool) {
	i, ok := sd.index[id]
	if !ok {
		return ProductionCenter{}, false
	}
	return sd.Centers[i], true
}

// Outgoing returns the outgoing connections of a center in declaration order.
// The returned slice is shared and MUST NOT be modified.
func (sd *ScenarioData) Outgoing(id string) []Connection {
	return sd.outgoing[id]
}

// CenterIDs returns the center IDs in declaration order.
func (sd *ScenarioData) CenterIDs() []string {
	ids := make([]string, len(sd.Centers))
	for i, c := range sd.Centers {
		ids[i] = c.ID
	}
	return ids
}
