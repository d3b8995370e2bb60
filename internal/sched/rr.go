package sched

// RoundRobin gives each ready task at most QuantumMS of CPU per turn,
// cycling through the single ready queue in arrival order.
type RoundRobin struct {
	QuantumMS uint32
}

func (RoundRobin) Name() string { return "rr" }
func (RoundRobin) Levels() int  { return 1 }

func (p RoundRobin) Step(s *Sim) {
	if complete(s) {
		t, _ := s.Occupant()
		if !fullQuantum(t.ServedMS, p.quantum()) {
			return
		}
		s.requeue(t, 0, StatusPreempt)
	}
	s.dispatchHead(0)
	s.idle()
}

func (p RoundRobin) quantum() uint32 {
	if p.QuantumMS == 0 {
		return DefaultQuantumMS
	}
	return p.QuantumMS
}
