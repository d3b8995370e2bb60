package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetirementMetrics(t *testing.T) {
	r := Retirement{RequestedMS: 200, AdmittedMS: 100, StartedMS: 400, FinishedMS: 700}
	assert.Equal(t, uint32(600), r.Turnaround())
	assert.Equal(t, uint32(400), r.Waiting())
	assert.Equal(t, uint32(300), r.Response())

	never := Retirement{RequestedMS: 0, AdmittedMS: 100, StartedMS: -1, FinishedMS: 100}
	assert.Zero(t, never.Waiting())
	assert.Zero(t, never.Response())
}

func TestSummarize(t *testing.T) {
	// the three-task shortest-job-first run: 100, 200 and 500 ms admitted at 0
	rs := []Retirement{
		{RequestedMS: 100, StartedMS: 0, FinishedMS: 100},
		{RequestedMS: 200, StartedMS: 100, FinishedMS: 300},
		{RequestedMS: 500, StartedMS: 300, FinishedMS: 800},
	}
	s := Summarize(rs)

	assert.Equal(t, 3, s.Tasks)
	assert.InDelta(t, 400, s.AvgTurnaround, 1e-9)
	assert.InDelta(t, 400.0/3, s.AvgWaiting, 1e-9)
	assert.InDelta(t, 400.0/3, s.AvgResponse, 1e-9)
	assert.Equal(t, uint32(800), s.Makespan)
	assert.InDelta(t, 3.75, s.Throughput, 1e-9)

	assert.Equal(t, Summary{}, Summarize(nil))
}
