// internal/sched/schedulerEvent.go

package sched

import (
	"time"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusEnqueue
	StatusDispatch
	StatusPreempt
	StatusDemote
	StatusFinish
	StatusNotifyFailed
)

// StatusEvent is emitted on every key action taken during admission or a tick.
type StatusEvent struct {
	Time   time.Time // wall clock, for logs only
	SimMS  uint32    // simulated time the action happened at
	Kind   StatusKind
	TaskID TaskID
	Client ClientID
	Level  int
	Served uint32
	Err    error // set on StatusNotifyFailed

	// Filled on StatusFinish so sinks can record the retirement after the
	// task record itself has been released.
	RequestedMS uint32
	AdmittedMS  uint32
	StartedMS   int64
	Dispatches  int
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusEnqueue:
		return "Enqueued"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusDemote:
		return "Demote"
	case StatusFinish:
		return "Finish"
	case StatusNotifyFailed:
		return "NotifyFailed"
	default:
		return "Unknown"
	}
}

func taskEvent(kind StatusKind, now uint32, t *Task) StatusEvent {
	return StatusEvent{
		Time:   time.Now(),
		SimMS:  now,
		Kind:   kind,
		TaskID: t.ID,
		Client: t.Client,
		Level:  t.Level,
		Served: t.ServedMS,
	}
}
