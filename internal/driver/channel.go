package driver

import (
	"errors"

	"ticksched/internal/proto"
)

// ErrOutboxFull is returned when a notice is already waiting to be written.
var ErrOutboxFull = errors.New("client outbox full")

// connChannel hands completion notices from the tick step to the goroutine
// that owns the connection. Send never blocks, so a slow client cannot hold
// up a tick.
type connChannel struct {
	out chan proto.Message
}

func newConnChannel() *connChannel {
	return &connChannel{out: make(chan proto.Message, 1)}
}

func (c *connChannel) Send(m proto.Message) error {
	select {
	case c.out <- m:
		return nil
	default:
		return ErrOutboxFull
	}
}
