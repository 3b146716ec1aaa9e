// Package sim provides the tick-synchronous simulation engine for production networks.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - scenario.go: ScenarioData, the validated graph of centers and connections
//   - allocator.go: per-tick redistribution of the global worker pool (two regimes) and the excess trim
//   - routing.go: choice of the successor buffer for a processed detail
//   - simulator.go: the tick loop (allocate, fan out, join, record, advance)
//
// # Architecture
//
// The orchestrator owns all runtime state (state.go). During a tick, processing sub-tasks see
// the published worker assignments read-only and move details only through the per-center
// buffers (queue.go), which are safe for concurrent use. Sub-packages:
//   - sim/trace/: allocation and routing decision recording
//   - sim/ingest/: scenario loading from spreadsheets and YAML
//   - sim/report/: CSV result export and charts
//
// # Key Interfaces
//
//   - RoutingPolicy: select the successor center for a processed detail (LeastWeight)
package sim
