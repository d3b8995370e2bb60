// internal/driver/server.go

package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ticksched/internal/proto"
	"ticksched/internal/sched"
)

// admitTimeout bounds how long a fresh connection may take to send its RUN.
const admitTimeout = 5 * time.Second

// Server accepts clients on a unix socket, admits their run requests into
// the scheduler and delivers the ACK and DONE replies.
type Server struct {
	socket       string
	writeTimeout time.Duration
	sched        *sched.Scheduler
	logger       *slog.Logger
	wg           sync.WaitGroup
}

// New creates a server for s listening on cfg.SocketPath.
func New(cfg sched.Config, s *sched.Scheduler, logger *slog.Logger) *Server {
	return &Server{
		socket:       cfg.SocketPath,
		writeTimeout: cfg.WriteTimeout(),
		sched:        s,
		logger:       logger.With("component", "driver"),
	}
}

// Listen opens the unix socket, replacing a stale socket file left behind
// by an earlier run.
func Listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket %s: %w", path, err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	return ln, nil
}

// Run listens, ticks and serves clients until ctx is cancelled.
func (srv *Server) Run(ctx context.Context) error {
	ln, err := Listen(srv.socket)
	if err != nil {
		return err
	}
	defer os.Remove(srv.socket)

	srv.logger.Info("listening", "socket", srv.socket)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.sched.Run(gctx) })
	g.Go(func() error { return srv.Serve(gctx, ln) })
	return g.Wait()
}

// Serve accepts connections on ln until ctx is cancelled, then waits for
// every open connection to finish.
func (srv *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	defer srv.wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			srv.handle(ctx, conn)
		}()
	}
}

// handle runs the RUN -> ACK -> DONE exchange for one client.
func (srv *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(admitTimeout))
	req, err := proto.Read(conn)
	if err != nil {
		srv.logger.Warn("reading run request", "error", err)
		return
	}
	if req.Kind != proto.KindRun {
		srv.logger.Warn("protocol violation", "pid", req.PID, "kind", req.Kind, "want", proto.KindRun)
		return
	}
	conn.SetReadDeadline(time.Time{})

	ch := newConnChannel()
	id, at, err := srv.sched.Admit(sched.ClientID(req.PID), req.TimeMS, ch)
	if err != nil {
		srv.logger.Warn("admission refused", "pid", req.PID, "error", err)
		return
	}
	logger := srv.logger.With("task_id", id, "pid", req.PID)

	if err := srv.write(conn, proto.Message{PID: req.PID, Kind: proto.KindAck, TimeMS: at}); err != nil {
		// the task stays admitted; its DONE will fail the same way
		logger.Warn("sending ack", "error", err)
	}

	select {
	case done := <-ch.out:
		if err := srv.write(conn, done); err != nil {
			logger.Warn("sending done", "error", err)
			return
		}
		logger.Debug("client notified", "sim_ms", done.TimeMS)
	case <-ctx.Done():
	}
}

func (srv *Server) write(conn net.Conn, m proto.Message) error {
	conn.SetWriteDeadline(time.Now().Add(srv.writeTimeout))
	return proto.Write(conn, m)
}
