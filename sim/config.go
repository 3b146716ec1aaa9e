package sim

import (
	"fmt"
	"time"

	"github.com/production-sim/production-sim/sim/trace"
)

// DefaultServiceTimeScale is the wall-clock time simulated per unit of center performance.
const DefaultServiceTimeScale = 10 * time.Millisecond

// Config groups the engine knobs. The zero value is not the default; use DefaultConfig.
type Config struct {
	ServiceTimeScale time.Duration     // wall time slept per unit of performance (0 = no sleep)
	RouteNudge       bool              // re-run the allocator for zero-worker routing candidates
	MaxTicks         int               // 0 = unlimited; otherwise the run fails with ErrTickLimit
	Parallelism      int               // size of the processing pool; 0 = WorkersCount
	RoutingPolicy    string            // "least-weight" (default)
	Trace            trace.TraceConfig // decision tracing; Level "none" or "" disables it
}

// DefaultConfig returns the configuration that reproduces the reference behavior.
func DefaultConfig() Config {
	return Config{
		ServiceTimeScale: DefaultServiceTimeScale,
		RouteNudge:       true,
		RoutingPolicy:    "least-weight",
		Trace:            trace.TraceConfig{Level: trace.TraceLevelNone},
	}
}

// ValidRoutingPolicies is the set of recognized routing policy names.
var ValidRoutingPolicies = map[string]bool{"": true, "least-weight": true}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	if c.ServiceTimeScale < 0 {
		return fmt.Errorf("%w: service time scale must be >= 0, got %v", ErrInvalidConfig, c.ServiceTimeScale)
	}
	if c.MaxTicks < 0 {
		return fmt.Errorf("%w: max ticks must be >= 0, got %d", ErrInvalidConfig, c.MaxTicks)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must be >= 0, got %d", ErrInvalidConfig, c.Parallelism)
	}
	if !ValidRoutingPolicies[c.RoutingPolicy] {
		return fmt.Errorf("%w: unknown routing policy %q", ErrInvalidConfig, c.RoutingPolicy)
	}
	if !trace.IsValidTraceLevel(string(c.Trace.Level)) {
		return fmt.Errorf("%w: unknown trace level %q", ErrInvalidConfig, c.Trace.Level)
	}
	return nil
}

// poolSize returns the number of details that may be in service at the same time.
func (c Config) poolSize(workersCount int) int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return max(1, workersCount)
}
