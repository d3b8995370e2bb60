// internal/sched/csvlog.go

package sched

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// CSVSink writes every non-idle status event as one CSV record.
type CSVSink struct {
	closer io.Closer
	w      *csv.Writer
}

// NewCSVSink writes the header to w and returns a sink over it.
func NewCSVSink(w io.Writer) *CSVSink {
	cw := csv.NewWriter(w)
	cw.Write([]string{"timestamp", "sim_ms", "event", "task_id", "client", "level", "served_ms"})
	cw.Flush()
	sink := &CSVSink{w: cw}
	if c, ok := w.(io.Closer); ok {
		sink.closer = c
	}
	return sink
}

// EnableCSVLogging opens the given file path for CSV logging of events.
// Must be called before Run().
func (s *Scheduler) EnableCSVLogging(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating event log: %w", err)
	}
	s.AddSink(NewCSVSink(f))
	return nil
}

func (c *CSVSink) Handle(ev StatusEvent) {
	if ev.Kind == StatusIdle {
		return
	}
	c.w.Write([]string{
		ev.Time.Format(time.RFC3339Nano),
		strconv.FormatUint(uint64(ev.SimMS), 10),
		ev.Kind.String(),
		strconv.FormatUint(uint64(ev.TaskID), 10),
		strconv.FormatInt(int64(ev.Client), 10),
		strconv.Itoa(ev.Level),
		strconv.FormatUint(uint64(ev.Served), 10),
	})
	c.w.Flush()
}

func (c *CSVSink) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
