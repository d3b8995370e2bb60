// internal/sched/scheduler.go

package sched

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStopped is returned by Admit once the scheduler has shut down.
var ErrStopped = errors.New("scheduler stopped")

// Sink consumes the status event stream. Handle runs on the scheduler's
// consumer goroutine; a slow sink delays ticks once the stream buffer fills.
type Sink interface {
	Handle(ev StatusEvent)
	Close() error
}

// Snapshot is a consistent view of the scheduler between two ticks.
type Snapshot struct {
	NowMS    uint32
	Ticks    int64
	Policy   string
	Running  TaskID // zero when idle
	RunLevel int
	Occupied bool
	Ready    []int // queue length per level
	Live     int
	Admitted int
	Retired  int
}

// Scheduler drives one policy over one simulation and streams state changes.
// Admission and ticks are mutually exclusive.
type Scheduler struct {
	mu       sync.Mutex // protects sim and stopped
	sim      *Sim
	policy   Policy
	interval time.Duration
	ticks    int64
	stopped  bool

	statusCh chan StatusEvent
	running  atomic.Bool
	done     chan struct{}
	sinks    []Sink
	logger   *slog.Logger
}

// New creates a Scheduler for cfg. The config must pass Validate.
func New(cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := NewPolicy(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler", "policy", policy.Name())

	return &Scheduler{
		sim:      NewSim(uint32(cfg.TickMS), policy.Levels(), logger),
		policy:   policy,
		interval: cfg.TickInterval(),
		statusCh: make(chan StatusEvent, 256),
		done:     make(chan struct{}),
		logger:   logger,
	}, nil
}

// AddSink registers a consumer of status events. Must be called before Run().
func (s *Scheduler) AddSink(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

// Policy returns the active policy.
func (s *Scheduler) Policy() Policy { return s.policy }

// Admit creates a task record for a run request and returns its handle and
// the simulated admission time.
func (s *Scheduler) Admit(client ClientID, requestedMS uint32, ch Channel) (TaskID, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0, 0, ErrStopped
	}
	now := s.sim.NowMS
	id := s.sim.Admit(client, requestedMS, ch)
	// published under the lock so the stream keeps simulation order
	s.publish(s.sim.DrainEvents())
	return id, now, nil
}

// Tick runs one policy step at the current simulated time, then advances
// the clock by one tick.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.Step(s.sim)
	prev := s.sim.NowMS
	s.sim.NowMS += s.sim.TickMS
	if s.sim.NowMS < prev {
		s.logger.Warn("simulated clock wrapped", "ticks", s.ticks+1)
	}
	s.ticks++
	s.publish(s.sim.DrainEvents())
}

// Now is the current simulated time.
func (s *Scheduler) Now() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.NowMS
}

// Live is the number of admitted tasks not yet retired.
func (s *Scheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Tasks.Len()
}

// RunUntilIdle ticks until every admitted task has retired or maxTicks
// have elapsed, and returns the number of ticks taken.
func (s *Scheduler) RunUntilIdle(maxTicks int) int {
	n := 0
	for n < maxTicks && s.Live() > 0 {
		s.Tick()
		n++
	}
	return n
}

// Snapshot returns the current state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		NowMS:    s.sim.NowMS,
		Ticks:    s.ticks,
		Policy:   s.policy.Name(),
		Ready:    make([]int, len(s.sim.Ready)),
		Live:     s.sim.Tasks.Len(),
		Admitted: s.sim.Admitted,
		Retired:  s.sim.Retired,
	}
	for i, q := range s.sim.Ready {
		snap.Ready[i] = q.Len()
	}
	if id, ok := s.sim.CPU.ID(); ok {
		snap.Running, snap.RunLevel, snap.Occupied = id, s.sim.Level, true
	}
	return snap
}

// Run paces ticks against the wall clock and feeds status events to the
// registered sinks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.running.Store(true)
	loopDone := make(chan struct{})
	go s.loop(ctx, loopDone)

	s.logger.Info("scheduler started", "tick_interval", s.interval)
	for {
		select {
		case ev := <-s.statusCh:
			s.handleEvent(ev)
		case <-loopDone:
			// release any Admit blocked on a full channel before taking the lock
			close(s.done)
			s.running.Store(false)
			s.mu.Lock()
			s.stopped = true
			s.mu.Unlock()
			s.drain()
			for _, sink := range s.sinks {
				if err := sink.Close(); err != nil {
					s.logger.Error("closing event sink", "error", err)
				}
			}
			snap := s.Snapshot()
			s.logger.Info("scheduler stopped", "sim_ms", snap.NowMS, "ticks", snap.Ticks,
				"admitted", snap.Admitted, "retired", snap.Retired)
			return nil
		}
	}
}

// loop drives exactly one Tick per clock tick.
func (s *Scheduler) loop(ctx context.Context, done chan<- struct{}) {
	clock := NewTickClock(1)
	clock.Start(s.interval)
	defer func() {
		// stop the underlying clock to release its goroutine
		clock.Stop()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-clock.Ch:
			if !ok {
				return
			}
			s.Tick()
		}
	}
}

func (s *Scheduler) drain() {
	for {
		select {
		case ev := <-s.statusCh:
			s.handleEvent(ev)
		default:
			return
		}
	}
}

func (s *Scheduler) publish(evs []StatusEvent) {
	if !s.running.Load() {
		return
	}
	for _, ev := range evs {
		select {
		case s.statusCh <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) handleEvent(ev StatusEvent) {
	switch ev.Kind {
	case StatusIdle:
		// periodic, not worth a log line
	case StatusEnqueue:
		s.logger.Info("task admitted", "sim_ms", ev.SimMS, "task_id", ev.TaskID, "client", ev.Client)
	case StatusFinish:
		s.logger.Info("task retired", "sim_ms", ev.SimMS, "task_id", ev.TaskID, "client", ev.Client,
			"requested_ms", ev.RequestedMS, "turnaround_ms", ev.SimMS-ev.AdmittedMS)
	case StatusNotifyFailed:
		s.logger.Warn("task retired without notice", "sim_ms", ev.SimMS, "task_id", ev.TaskID, "error", ev.Err)
	default:
		s.logger.Debug(ev.Kind.String(), "sim_ms", ev.SimMS, "task_id", ev.TaskID,
			"level", ev.Level, "served_ms", ev.Served)
	}

	for _, sink := range s.sinks {
		sink.Handle(ev)
	}
}
