package driver

import (
	"context"
	"log/slog"
	"time"

	"ticksched/internal/history"
	"ticksched/internal/sched"
)

// historyBacklog is how many retirements may wait for the database.
const historyBacklog = 256

// Recorder persists retirements. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, r history.Retirement) error
	Close() error
}

// HistorySink records every retirement of one daemon run. Writes happen on
// the sink's own goroutine so a slow database never holds up the event
// stream; when the backlog is full the retirement is dropped and logged.
type HistorySink struct {
	rec    Recorder
	runID  string
	policy string
	logger *slog.Logger

	queue chan history.Retirement
	done  chan struct{}
}

// NewHistorySink takes ownership of rec and closes it with the sink.
func NewHistorySink(rec Recorder, runID, policy string, logger *slog.Logger) *HistorySink {
	h := &HistorySink{
		rec:    rec,
		runID:  runID,
		policy: policy,
		logger: logger.With("component", "history", "run_id", runID),
		queue:  make(chan history.Retirement, historyBacklog),
		done:   make(chan struct{}),
	}
	go h.write()
	return h
}

func (h *HistorySink) Handle(ev sched.StatusEvent) {
	if ev.Kind != sched.StatusFinish {
		return
	}
	r := history.Retirement{
		RunID:       h.runID,
		Policy:      h.policy,
		TaskID:      uint64(ev.TaskID),
		Client:      int32(ev.Client),
		RequestedMS: ev.RequestedMS,
		AdmittedMS:  ev.AdmittedMS,
		StartedMS:   ev.StartedMS,
		FinishedMS:  ev.SimMS,
		Dispatches:  ev.Dispatches,
	}
	select {
	case h.queue <- r:
	default:
		h.logger.Warn("history backlog full, retirement not recorded", "task_id", ev.TaskID)
	}
}

func (h *HistorySink) write() {
	defer close(h.done)
	for r := range h.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := h.rec.Record(ctx, r)
		cancel()
		if err != nil {
			h.logger.Error("recording retirement", "task_id", r.TaskID, "error", err)
		}
	}
}

// Close writes out the backlog, then closes the recorder.
func (h *HistorySink) Close() error {
	close(h.queue)
	<-h.done
	return h.rec.Close()
}
