// internal/sched/tickclock.go

package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// TickClock paces simulated ticks against the wall clock and counts them atomically.
type TickClock struct {
	Ch    chan struct{}
	count atomic.Int64
	stop  chan struct{}
	once  sync.Once
}

// NewTickClock creates a clock but does not start it.
func NewTickClock(buffer int) *TickClock {
	return &TickClock{
		Ch:   make(chan struct{}, buffer),
		stop: make(chan struct{}),
	}
}

// Start begins emitting ticks at the given interval. Ch is closed once the
// clock stops.
func (c *TickClock) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer func() {
			ticker.Stop()
			close(c.Ch)
		}()
		for {
			select {
			case <-ticker.C:
				select {
				case c.Ch <- struct{}{}:
					c.count.Add(1)
				case <-c.stop:
					return
				}
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop signals the clock to stop emitting ticks. Safe to call more than once.
func (c *TickClock) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Count returns the number of ticks delivered so far.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}
