package client

import (
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticksched/internal/proto"
)

// fakeDaemon reads the RUN request and answers with replies.
func fakeDaemon(t *testing.T, conn net.Conn, replies ...proto.Message) <-chan proto.Message {
	t.Helper()
	got := make(chan proto.Message, 1)
	go func() {
		defer conn.Close()
		req, err := proto.Read(conn)
		if err != nil {
			close(got)
			return
		}
		got <- req
		for _, m := range replies {
			if err := proto.Write(conn, m); err != nil {
				return
			}
		}
	}()
	return got
}

func TestExchange_FullHandshake(t *testing.T) {
	cli, srv := net.Pipe()
	defer cli.Close()
	reqs := fakeDaemon(t, srv,
		proto.Message{PID: 42, Kind: proto.KindAck, TimeMS: 100},
		proto.Message{PID: 42, Kind: proto.KindDone, TimeMS: 3400},
	)

	res, err := Exchange(cli, 42, 3)
	require.NoError(t, err)

	assert.Equal(t, proto.Message{PID: 42, Kind: proto.KindRun, TimeMS: 3000}, <-reqs)
	assert.Equal(t, uint32(100), res.StartMS)
	assert.Equal(t, uint32(3400), res.FinishMS)
	assert.InDelta(t, 3.3, res.Elapsed(), 1e-9)
	assert.InDelta(t, 3.0, res.CPU(), 1e-9)
	assert.InDelta(t, 0.3, res.Overhead(), 1e-9)
}

func TestExchange_Failures(t *testing.T) {
	tests := []struct {
		name     string
		replies  []proto.Message
		step     Step
		code     int
		sentinel error
	}{
		{
			name:     "done before ack",
			replies:  []proto.Message{{PID: 1, Kind: proto.KindDone, TimeMS: 5}},
			step:     StepReceiveAck,
			code:     4,
			sentinel: ErrUnexpectedKind,
		},
		{
			name:     "closed before ack",
			step:     StepReceiveAck,
			code:     4,
			sentinel: io.EOF,
		},
		{
			name:     "closed before done",
			replies:  []proto.Message{{PID: 1, Kind: proto.KindAck}},
			step:     StepReceiveDone,
			code:     5,
			sentinel: io.EOF,
		},
		{
			name: "ack twice",
			replies: []proto.Message{
				{PID: 1, Kind: proto.KindAck},
				{PID: 1, Kind: proto.KindAck},
			},
			step:     StepReceiveDone,
			code:     5,
			sentinel: ErrUnexpectedKind,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, srv := net.Pipe()
			defer cli.Close()
			fakeDaemon(t, srv, tt.replies...)

			_, err := Exchange(cli, 1, 1)

			var se *StepError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.step, se.Step)
			assert.Equal(t, tt.code, se.ExitCode())
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestExchange_SendFailure(t *testing.T) {
	cli, srv := net.Pipe()
	srv.Close()

	_, err := Exchange(cli, 1, 1)

	var se *StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StepSend, se.Step)
	assert.Equal(t, 3, se.ExitCode())
}

func TestRun_ConnectFailure(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "absent.sock")

	_, err := Run(context.Background(), Options{Socket: socket, PID: 1, Seconds: 1})

	var se *StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StepConnect, se.Step)
	assert.Equal(t, 2, se.ExitCode())
	assert.Contains(t, err.Error(), "connect:")
}

func TestRun_RetriesUntilCancelled(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "absent.sock")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{Socket: socket, PID: 1, Seconds: 1, DialRetries: 100})
	var se *StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StepConnect, se.Step)
}

func TestStepError_UnknownStep(t *testing.T) {
	assert.Equal(t, 1, (&StepError{Step: "other", Err: errors.New("x")}).ExitCode())
}
