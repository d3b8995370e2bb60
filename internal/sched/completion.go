// internal/sched/completion.go

package sched

import (
	"ticksched/internal/proto"
)

// complete grants the occupant one tick and retires it once its request is
// met. It reports whether the CPU slot is still occupied afterwards.
//
// Delivery of the DONE notice is best effort: the record is released and the
// slot cleared whether or not the channel accepted it.
func complete(s *Sim) (running bool) {
	t, ok := s.Occupant()
	if !ok {
		return false
	}

	// the last charge is capped so served time never wraps past the request
	if t.Remaining() <= s.TickMS {
		t.ServedMS = t.RequestedMS
	} else {
		t.ServedMS += s.TickMS
	}
	if !t.Done() {
		return true
	}

	msg := proto.Message{
		PID:    int32(t.Client),
		Kind:   proto.KindDone,
		TimeMS: s.NowMS,
	}
	if t.Channel != nil {
		if err := t.Channel.Send(msg); err != nil {
			s.Logger.Warn("completion notice not delivered",
				"task_id", t.ID, "client", t.Client, "error", err)
			ev := taskEvent(StatusNotifyFailed, s.NowMS, t)
			ev.Err = err
			s.emit(ev)
		}
		t.Channel = nil
	}

	ev := taskEvent(StatusFinish, s.NowMS, t)
	ev.RequestedMS = t.RequestedMS
	ev.AdmittedMS = t.AdmittedMS
	ev.StartedMS = t.StartedMS
	ev.Dispatches = t.Dispatches

	if err := s.Tasks.Release(t.ID); err != nil {
		s.Logger.Error("release retired task", "task_id", t.ID, "error", err)
	}
	s.CPU = Slot{}
	s.Retired++
	s.emit(ev)
	return false
}
