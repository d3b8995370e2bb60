package sched

// ShortestJobFirst picks the waiting task with the smallest request whenever
// the CPU is idle. A running task is never interrupted.
type ShortestJobFirst struct{}

func (ShortestJobFirst) Name() string { return "sjf" }
func (ShortestJobFirst) Levels() int  { return 1 }

func (ShortestJobFirst) Step(s *Sim) {
	if complete(s) {
		return
	}
	if id, ok := shortest(s, s.Ready[0]); ok {
		s.Ready[0].Remove(id)
		s.dispatch(id, 0)
	}
	s.idle()
}

// shortest scans q head to tail. Strict less-than keeps the earliest arrival
// on ties.
func shortest(s *Sim, q *ReadyQueue) (TaskID, bool) {
	var (
		best  TaskID
		least uint32
		found bool
	)
	for id := range q.All() {
		t, ok := s.Tasks.Get(id)
		if !ok {
			continue
		}
		if !found || t.RequestedMS < least {
			best, least, found = id, t.RequestedMS, true
		}
	}
	return best, found
}
