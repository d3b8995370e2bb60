package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ticksched/internal/proto"
)

// Options configures one application run.
type Options struct {
	Socket      string
	PID         int32
	Seconds     uint32 // CPU time to request
	DialRetries uint64 // extra connect attempts while the daemon starts up
}

// Result holds the simulated timestamps of a finished run.
type Result struct {
	PID      int32
	Seconds  uint32
	StartMS  uint32 // from the ACK
	FinishMS uint32 // from the DONE
}

// Elapsed is the simulated wall time between admission and retirement, in seconds.
func (r Result) Elapsed() float64 {
	return float64(int64(r.FinishMS)-int64(r.StartMS)) / 1000
}

// CPU is the requested CPU time in seconds.
func (r Result) CPU() float64 { return float64(r.Seconds) }

// Overhead is the time spent waiting rather than running, in seconds.
func (r Result) Overhead() float64 { return r.Elapsed() - r.CPU() }

// Run connects to the scheduler and performs one full RUN/ACK/DONE exchange.
func Run(ctx context.Context, opts Options) (Result, error) {
	conn, err := Dial(ctx, opts.Socket, opts.DialRetries)
	if err != nil {
		return Result{PID: opts.PID, Seconds: opts.Seconds}, stepErr(StepConnect, err)
	}
	defer conn.Close()

	// unblock pending reads if the caller gives up
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	return Exchange(conn, opts.PID, opts.Seconds)
}

// Dial connects to the scheduler socket, retrying with exponential backoff.
func Dial(ctx context.Context, socket string, retries uint64) (net.Conn, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 50 * time.Millisecond
	eb.MaxInterval = time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, retries), ctx)

	var (
		d    net.Dialer
		conn net.Conn
	)
	err := backoff.Retry(func() error {
		c, err := d.DialContext(ctx, "unix", socket)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Exchange sends the RUN request over rw and waits for ACK then DONE.
func Exchange(rw io.ReadWriter, pid int32, seconds uint32) (Result, error) {
	res := Result{PID: pid, Seconds: seconds}

	req := proto.Message{PID: pid, Kind: proto.KindRun, TimeMS: seconds * 1000}
	if err := proto.Write(rw, req); err != nil {
		return res, stepErr(StepSend, err)
	}

	ack, err := expect(rw, proto.KindAck)
	if err != nil {
		return res, stepErr(StepReceiveAck, err)
	}
	res.StartMS = ack.TimeMS

	done, err := expect(rw, proto.KindDone)
	if err != nil {
		return res, stepErr(StepReceiveDone, err)
	}
	res.FinishMS = done.TimeMS
	return res, nil
}

func expect(r io.Reader, kind proto.Kind) (proto.Message, error) {
	m, err := proto.Read(r)
	if err != nil {
		return m, err
	}
	if m.Kind != kind {
		return m, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedKind, m.Kind, kind)
	}
	return m, nil
}
