package sched

import "ticksched/internal/proto"

// TaskID is the arena handle of an admitted task. Handles are never reused.
type TaskID uint64

// ClientID is the identity the client sent in its RUN request.
type ClientID int32

// Channel carries the completion notice back to the owning client.
// It is used exactly once per task and must not block.
type Channel interface {
	Send(m proto.Message) error
}

// Task is the scheduling state of one admitted client.
type Task struct {
	ID          TaskID
	Client      ClientID
	Channel     Channel
	RequestedMS uint32 // total simulated CPU time asked for, immutable
	ServedMS    uint32 // granted so far, only grows while on the CPU slot
	Level       int    // feedback priority level, 0 is the highest

	AdmittedMS uint32 // simulated time of admission
	StartedMS  int64  // simulated time of first dispatch, -1 until dispatched
	Dispatches int    // times moved onto the CPU slot
}

// NewTask creates a task record at the highest priority level.
// NOTE: ID is zero here. It is assigned when the task enters the arena.
func NewTask(client ClientID, requestedMS uint32, ch Channel) *Task {
	return &Task{
		Client:      client,
		Channel:     ch,
		RequestedMS: requestedMS,
		StartedMS:   -1,
	}
}

// Done reports whether the task has been served its full request.
func (t *Task) Done() bool {
	return t.ServedMS >= t.RequestedMS
}

// Remaining is the simulated time still owed to the task.
func (t *Task) Remaining() uint32 {
	if t.Done() {
		return 0
	}
	return t.RequestedMS - t.ServedMS
}
