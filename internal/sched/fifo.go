package sched

// FIFO runs tasks in arrival order, each one uninterrupted to completion.
type FIFO struct{}

func (FIFO) Name() string { return "fifo" }
func (FIFO) Levels() int  { return 1 }

func (FIFO) Step(s *Sim) {
	if complete(s) {
		return
	}
	s.dispatchHead(0)
	s.idle()
}
