package history

// Summary aggregates the classic scheduling metrics over a set of retirements.
type Summary struct {
	Tasks         int
	AvgTurnaround float64 // ms
	AvgWaiting    float64 // ms
	AvgResponse   float64 // ms
	Makespan      uint32  // last retirement minus first admission, ms
	Throughput    float64 // tasks per simulated second
}

// Summarize computes a Summary. An empty slice yields the zero Summary.
func Summarize(rs []Retirement) Summary {
	if len(rs) == 0 {
		return Summary{}
	}
	var (
		sum           Summary
		ta, wait, rsp float64
		first         = rs[0].AdmittedMS
		last          = rs[0].FinishedMS
	)
	for _, r := range rs {
		ta += float64(r.Turnaround())
		wait += float64(r.Waiting())
		rsp += float64(r.Response())
		first = min(first, r.AdmittedMS)
		last = max(last, r.FinishedMS)
	}
	n := float64(len(rs))
	sum.Tasks = len(rs)
	sum.AvgTurnaround = ta / n
	sum.AvgWaiting = wait / n
	sum.AvgResponse = rsp / n
	sum.Makespan = last - first
	if sum.Makespan > 0 {
		sum.Throughput = n / (float64(sum.Makespan) / 1000)
	}
	return sum
}
