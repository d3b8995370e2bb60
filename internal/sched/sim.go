// internal/sched/sim.go

package sched

import (
	"io"
	"log/slog"
	"time"
)

// Slot is the single CPU. The zero value is an idle CPU.
type Slot struct {
	id   TaskID
	busy bool
}

// Busy reports whether a task occupies the slot.
func (c Slot) Busy() bool { return c.busy }

// ID returns the occupant handle; ok is false when idle.
func (c Slot) ID() (TaskID, bool) { return c.id, c.busy }

// Sim is the simulation context every policy step works on. It is passed
// explicitly; nothing in this package keeps scheduling state elsewhere.
//
// NowMS is 32 bits, like time_ms on the wire, so it wraps after about 49.7
// simulated days.
type Sim struct {
	NowMS  uint32
	TickMS uint32
	Tasks  *Arena
	Ready  []*ReadyQueue // one per priority level, 0 first
	CPU    Slot
	Level  int // ready level the occupant was dispatched from

	Admitted int
	Retired  int

	Logger *slog.Logger
	events []StatusEvent
}

// NewSim creates an idle simulation at time 0 with the given number of ready levels.
func NewSim(tickMS uint32, levels int, logger *slog.Logger) *Sim {
	if levels < 1 {
		levels = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ready := make([]*ReadyQueue, levels)
	for i := range ready {
		ready[i] = NewReadyQueue()
	}
	return &Sim{
		TickMS: tickMS,
		Tasks:  NewArena(),
		Ready:  ready,
		Logger: logger,
	}
}

// Admit turns a run request into a task record at the tail of level 0.
func (s *Sim) Admit(client ClientID, requestedMS uint32, ch Channel) TaskID {
	t := NewTask(client, requestedMS, ch)
	t.AdmittedMS = s.NowMS
	id := s.Tasks.Insert(t)
	s.Ready[0].Enqueue(id)
	s.Admitted++
	s.emit(taskEvent(StatusEnqueue, s.NowMS, t))
	return id
}

// Occupant returns the task on the CPU slot.
func (s *Sim) Occupant() (*Task, bool) {
	id, ok := s.CPU.ID()
	if !ok {
		return nil, false
	}
	return s.Tasks.Get(id)
}

// Pending is the number of tasks waiting across all levels.
func (s *Sim) Pending() int {
	n := 0
	for _, q := range s.Ready {
		n += q.Len()
	}
	return n
}

// DrainEvents hands over the events recorded since the last drain.
func (s *Sim) DrainEvents() []StatusEvent {
	evs := s.events
	s.events = nil
	return evs
}

func (s *Sim) emit(ev StatusEvent) {
	s.events = append(s.events, ev)
}

// dispatchHead moves the head of level onto the idle CPU slot.
// It reports false when that level is empty.
func (s *Sim) dispatchHead(level int) bool {
	for {
		id, ok := s.Ready[level].DequeueHead()
		if !ok {
			return false
		}
		if s.dispatch(id, level) {
			return true
		}
	}
}

// dispatch places an already unlinked handle onto the idle CPU slot.
func (s *Sim) dispatch(id TaskID, level int) bool {
	t, ok := s.Tasks.Get(id)
	if !ok {
		s.Logger.Error("dropping dangling handle", "task_id", id, "level", level)
		return false
	}
	_ = s.Tasks.Move(id, OnCPU)
	s.CPU = Slot{id: id, busy: true}
	s.Level = level
	t.Level = level
	if t.StartedMS < 0 {
		t.StartedMS = int64(s.NowMS)
	}
	t.Dispatches++
	s.emit(taskEvent(StatusDispatch, s.NowMS, t))
	return true
}

// requeue returns the occupant to the tail of level and idles the CPU slot.
func (s *Sim) requeue(t *Task, level int, kind StatusKind) {
	t.Level = level
	_ = s.Tasks.Move(t.ID, Ready(level))
	s.Ready[level].Enqueue(t.ID)
	s.CPU = Slot{}
	s.emit(taskEvent(kind, s.NowMS, t))
}

// idle records that the tick ended with nothing to run.
func (s *Sim) idle() {
	if !s.CPU.Busy() {
		s.emit(StatusEvent{Time: time.Now(), SimMS: s.NowMS, Kind: StatusIdle})
	}
}
