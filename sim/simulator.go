// sim/simulator.go
package sim

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/production-sim/production-sim/sim/trace"
)

// Simulator is the core object that holds the scenario, the runtime state and the tick loop.
//
// One tick: completion check, allocate, trim excess, fan out processing of every center on a
// shared pool, join, record one row per center, advance the clock by 1.
type Simulator struct {
	RunID    string
	Scenario *ScenarioData
	Config   Config
	State    *State
	Metrics  *Metrics
	// Trace is nil unless Config.Trace enables decision tracing.
	Trace *trace.SimulationTrace

	policy RoutingPolicy
	pool   *semaphore.Weighted
	log    *logrus.Entry
	nudges atomic.Int64
	done   bool
}

// NewSimulator validates the configuration and builds the initial state:
// empty buffers, the start buffer seeded with DetailsCount details, zero assignments.
func NewSimulator(sd *ScenarioData, cfg Config) (*Simulator, error) {
	if sd == nil {
		return nil, fmt.Errorf("%w: nil scenario", ErrScenarioMalformed)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	s := &Simulator{
		RunID:    runID,
		Scenario: sd,
		Config:   cfg,
		State:    NewState(sd),
		Metrics:  NewMetrics(),
		policy:   NewRoutingPolicy(cfg.RoutingPolicy),
		pool:     semaphore.NewWeighted(int64(cfg.poolSize(sd.WorkersCount))),
		log:      logrus.WithField("run", runID),
	}
	if cfg.Trace.Enabled() {
		s.Trace = trace.NewSimulationTrace(cfg.Trace)
	}
	s.Metrics.RunID = runID
	s.Metrics.DetailsCount = sd.DetailsCount
	s.Metrics.WorkersCount = sd.WorkersCount
	s.Metrics.observePeaks(s.State)
	return s, nil
}

// Run steps the simulation until it completes or a tick fails. A failed tick is not recorded,
// so Results only ever holds fully completed ticks.
func (s *Simulator) Run(ctx context.Context) error {
	start := time.Now()
	defer func() { s.Metrics.WallTime = time.Since(start) }()

	s.log.Infof("Starting simulation: %d centers, %d workers, %d details, start=%s end=%s",
		len(s.Scenario.Centers), s.Scenario.WorkersCount, s.Scenario.DetailsCount,
		s.Scenario.StartCenterID, s.Scenario.EndCenterID)
	for {
		done, err := s.Step(ctx)
		if err != nil {
			s.log.Errorf("[tick %07d] Simulation aborted: %v", s.tick(), err)
			return err
		}
		if done {
			break
		}
	}
	s.log.Infof("[tick %07d] Simulation ended, %d details delivered", s.tick(), s.State.Delivered())
	return nil
}

// Step executes one tick. It returns true, without recording anything, once every buffer is
// empty and no worker is assigned.
func (s *Simulator) Step(ctx context.Context) (bool, error) {
	if s.done {
		return true, nil
	}
	if s.isComplete() {
		s.done = true
		return true, nil
	}
	if s.Config.MaxTicks > 0 && s.Metrics.Ticks >= s.Config.MaxTicks {
		return false, fmt.Errorf("%w: %d ticks run, %d details still buffered", ErrTickLimit, s.Metrics.Ticks, s.State.Buffered())
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	if err := s.allocate(); err != nil {
		return false, err
	}

	processed, err := s.fanOut(ctx)
	if err != nil {
		return false, err
	}

	recordResults(s.State, s.Scenario)
	s.observeTick(processed)
	s.State.Clock += 1.0
	if err := s.State.verify(s.Scenario); err != nil {
		return false, err
	}
	return false, nil
}

// Results returns the result log in (tick, center declaration) order.
func (s *Simulator) Results() []SimulationResult {
	return s.State.Results
}

func (s *Simulator) tick() int64 {
	return int64(s.State.Clock)
}

// isComplete releases workers held at drained centers and then reports whether every buffer
// is empty and every assignment is 0.
func (s *Simulator) isComplete() bool {
	if !s.State.allBuffersEmpty() {
		return false
	}
	s.State.releaseIdle()
	return s.State.Workers.Total() == 0
}

// allocate publishes the assignments for this tick.
func (s *Simulator) allocate() error {
	sd := s.Scenario
	alloc := Allocate(sd, s.State.BufferSizes(), s.State.Workers)
	trimmed := 0
	if total := alloc.Workers.Total(); total > sd.WorkersCount {
		s.log.Warnf("[tick %07d] %d workers assigned, only %d available; trimming", s.tick(), total, sd.WorkersCount)
		trimmed = TrimExcess(alloc.Workers, sd.CenterIDs(), sd.WorkersCount)
	}
	s.State.Workers = alloc.Workers
	s.Metrics.RegimeTicks[alloc.Regime]++
	s.Metrics.TrimmedWorkers += trimmed

	if s.Trace != nil {
		s.Trace.RecordAllocation(trace.AllocationRecord{
			Clock:   s.tick(),
			Regime:  string(alloc.Regime),
			Workers: alloc.Workers.Clone(),
			Trimmed: trimmed,
		})
	}

	assigned := alloc.Workers.Total()
	s.log.Infof("[tick %07d] %s allocation: %d of %d workers assigned", s.tick(), alloc.Regime, assigned, sd.WorkersCount)
	if assigned == 0 {
		return fmt.Errorf("%w: %d details buffered but no worker can be assigned (workersCount=%d)",
			ErrStalled, s.State.Buffered(), sd.WorkersCount)
	}
	return nil
}

// fanOut takes every center's dequeue window, then processes all windows concurrently on the
// shared pool and waits for them. Windows are bounded by the assignment published for this
// tick and are taken before any detail moves, so details arriving during the tick wait for
// the next one. Returns the number of details processed per center.
func (s *Simulator) fanOut(ctx context.Context) (map[string]int, error) {
	sd := s.Scenario
	windows := make([][]Detail, len(sd.Centers))
	for i, c := range sd.Centers {
		n := s.State.Workers[c.ID]
		if n == 0 {
			continue
		}
		buf, err := s.State.Buffer(c.ID)
		if err != nil {
			return nil, err
		}
		windows[i] = buf.DequeueUpTo(n)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range sd.Centers {
		if len(windows[i]) == 0 {
			continue
		}
		c, window := c, windows[i]
		g.Go(func() error {
			return s.processCenter(gctx, c, window)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	processed := make(map[string]int, len(sd.Centers))
	for i, c := range sd.Centers {
		processed[c.ID] = len(windows[i])
	}
	return processed, nil
}

// processCenter serves every detail of one window in its own sub-task. Details whose sub-task
// failed before they were routed go back to the head of the center's buffer, in window order.
func (s *Simulator) processCenter(ctx context.Context, c ProductionCenter, window []Detail) error {
	returned := make([]bool, len(window))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range window {
		i, d := i, d
		g.Go(func() error {
			if err := s.pool.Acquire(gctx, 1); err != nil {
				returned[i] = true
				return fmt.Errorf("%w: detail %s waiting at center %q: %w", ErrInterrupted, d, c.ID, err)
			}
			defer s.pool.Release(1)
			if err := s.serve(gctx, c, d); err != nil {
				returned[i] = true
				return err
			}
			if err := s.moveToNextBuffer(c, d); err != nil {
				returned[i] = true
				return err
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		var back []Detail
		for i, d := range window {
			if returned[i] {
				back = append(back, d)
			}
		}
		if buf, bufErr := s.State.Buffer(c.ID); bufErr == nil {
			buf.PrependFront(back...)
		}
	}
	return err
}

// serve sleeps for the service time of one detail: performance * ServiceTimeScale.
func (s *Simulator) serve(ctx context.Context, c ProductionCenter, d Detail) error {
	service := time.Duration(c.Performance * float64(s.Config.ServiceTimeScale))
	s.log.Debugf("[tick %07d] Processing %s at center %s for %v", s.tick(), d, c.Name, service)
	if service <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: detail %s at center %q: %w", ErrInterrupted, d, c.ID, err)
		}
		return nil
	}
	timer := time.NewTimer(service)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: detail %s at center %q: %w", ErrInterrupted, d, c.ID, ctx.Err())
	case <-timer.C:
	}
	s.log.Debugf("[tick %07d] %s processed at center %s", s.tick(), d, c.Name)
	return nil
}

// moveToNextBuffer asks the routing policy for a successor and enqueues the detail there.
func (s *Simulator) moveToNextBuffer(c ProductionCenter, d Detail) error {
	rs := NewRouterState(s.Scenario, s.State, c.ID, s.Config.RouteNudge)
	decision, err := s.policy.Route(c, rs)
	if err != nil {
		return fmt.Errorf("routing %s from center %q: %w", d, c.ID, err)
	}
	if decision.Nudged {
		s.nudges.Add(1)
	}

	switch {
	case decision.Terminal:
		s.State.markDelivered()
		s.log.Debugf("[tick %07d] %s delivered by center %s", s.tick(), d, c.Name)
	case decision.Stay:
		buf, err := s.State.Buffer(c.ID)
		if err != nil {
			return err
		}
		buf.Enqueue(d)
	default:
		buf, err := s.State.Buffer(decision.Target)
		if err != nil {
			return err
		}
		buf.Enqueue(d)
		s.log.Debugf("[tick %07d] %s routed %s -> %s (%s)", s.tick(), d, c.ID, decision.Target, decision.Reason)
	}

	if s.Trace != nil {
		s.Trace.RecordRouting(trace.RoutingRecord{
			DetailID: string(d),
			Clock:    s.tick(),
			Source:   c.ID,
			Target:   decision.Target,
			Terminal: decision.Terminal,
			Stayed:   decision.Stay,
			Nudged:   decision.Nudged,
			Reason:   decision.Reason,
			Scores:   decision.Scores,
		})
	}
	return nil
}

// observeTick folds a completed tick into the metrics.
func (s *Simulator) observeTick(processed map[string]int) {
	m := s.Metrics
	m.Ticks++
	m.WorkerTicks += s.State.Workers.Total()
	for id, n := range processed {
		m.ProcessedByCenter[id] += n
		m.Processed += n
	}
	m.Delivered = s.State.Delivered()
	m.Nudges = int(s.nudges.Load())
	m.observePeaks(s.State)
}
