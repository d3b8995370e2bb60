package sched

// MultiLevelFeedback keeps one ready queue per priority level. A task that
// uses a full quantum drops one level (never below the last), and the CPU is
// always refilled from the highest non-empty level.
//
// Tasks on the lowest level only run while every level above is empty, so
// they can starve under a steady stream of new arrivals.
type MultiLevelFeedback struct {
	NumLevels int
	QuantumMS uint32
}

func (MultiLevelFeedback) Name() string { return "mlfq" }

func (p MultiLevelFeedback) Levels() int {
	if p.NumLevels < 1 {
		return DefaultLevels
	}
	return p.NumLevels
}

func (p MultiLevelFeedback) Step(s *Sim) {
	if complete(s) {
		t, _ := s.Occupant()
		if !fullQuantum(t.ServedMS, p.quantum()) {
			return
		}
		next := min(s.Level+1, p.Levels()-1)
		s.requeue(t, next, StatusDemote)
	}
	for lvl := 0; lvl < len(s.Ready) && lvl < p.Levels(); lvl++ {
		if s.dispatchHead(lvl) {
			break
		}
	}
	s.idle()
}

func (p MultiLevelFeedback) quantum() uint32 {
	if p.QuantumMS == 0 {
		return DefaultQuantumMS
	}
	return p.QuantumMS
}
