package driver

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticksched/internal/client"
	"ticksched/internal/history"
	"ticksched/internal/logging"
	"ticksched/internal/proto"
	"ticksched/internal/sched"
)

func shortSocket(t *testing.T) string {
	t.Helper()
	// unix socket paths are limited to ~108 bytes, t.TempDir() can be longer
	dir, err := os.MkdirTemp("", "ts")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

type testDaemon struct {
	cfg    sched.Config
	sched  *sched.Scheduler
	srv    *Server
	cancel context.CancelFunc
	errCh  chan error
}

func startDaemon(t *testing.T, policy string, sinks ...sched.Sink) *testDaemon {
	t.Helper()
	cfg := sched.DefaultConfig()
	cfg.Policy = policy
	cfg.SocketPath = shortSocket(t)
	cfg.Speedup = 200
	cfg.WriteTimeoutMS = 50

	logger := logging.Discard()
	s, err := sched.New(cfg, logger)
	require.NoError(t, err)
	for _, sink := range sinks {
		s.AddSink(sink)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &testDaemon{cfg: cfg, sched: s, srv: New(cfg, s, logger), cancel: cancel, errCh: make(chan error, 1)}
	go func() { d.errCh <- d.srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.SocketPath)
		return err == nil
	}, 2*time.Second, time.Millisecond)

	t.Cleanup(d.stop)
	return d
}

func (d *testDaemon) stop() {
	d.cancel()
	select {
	case <-d.errCh:
	case <-time.After(5 * time.Second):
	}
}

func TestServer_EndToEnd(t *testing.T) {
	d := startDaemon(t, "sjf")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[int32]client.Result)
	)
	for pid, secs := range map[int32]uint32{101: 2, 102: 1, 103: 1} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := client.Run(context.Background(), client.Options{
				Socket: d.cfg.SocketPath, PID: pid, Seconds: secs, DialRetries: 5,
			})
			assert.NoError(t, err, "pid %d", pid)
			mu.Lock()
			results[pid] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, results, 3)
	for pid, res := range results {
		assert.GreaterOrEqual(t, res.FinishMS, res.StartMS+res.Seconds*1000, "pid %d", pid)
		assert.GreaterOrEqual(t, res.Overhead(), 0.0)
	}
	assert.Zero(t, d.sched.Live())
}

func TestServer_RejectsNonRunRequest(t *testing.T) {
	d := startDaemon(t, "fifo")

	conn, err := net.Dial("unix", d.cfg.SocketPath)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, proto.Write(conn, proto.Message{PID: 1, Kind: proto.KindDone}))
	_, err = proto.Read(conn)
	assert.ErrorIs(t, err, io.EOF, "connection is closed without a reply")
	assert.Zero(t, d.sched.Snapshot().Admitted)
}

func TestServer_StalledClientDoesNotStallTicks(t *testing.T) {
	d := startDaemon(t, "fifo")

	// admitted first, never reads a reply
	stalled, err := net.Dial("unix", d.cfg.SocketPath)
	require.NoError(t, err)
	defer stalled.Close()
	require.NoError(t, proto.Write(stalled, proto.Message{PID: 1, Kind: proto.KindRun, TimeMS: 300}))

	require.Eventually(t, func() bool { return d.sched.Snapshot().Admitted == 1 }, 2*time.Second, time.Millisecond)

	res, err := client.Run(context.Background(), client.Options{Socket: d.cfg.SocketPath, PID: 2, Seconds: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.FinishMS, res.StartMS+1000)
	assert.Zero(t, d.sched.Live(), "stalled client's task was released too")
}

func TestServer_ListenReplacesStaleSocket(t *testing.T) {
	path := shortSocket(t)
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	ln, err := Listen(path)
	require.NoError(t, err)
	ln.Close()
}

func TestConnChannel_NeverBlocks(t *testing.T) {
	ch := newConnChannel()
	require.NoError(t, ch.Send(proto.Message{Kind: proto.KindDone}))
	err := ch.Send(proto.Message{Kind: proto.KindDone})
	assert.True(t, errors.Is(err, ErrOutboxFull))
}

func TestHistorySink_RecordsRetirements(t *testing.T) {
	store, err := history.Open(":memory:", logging.Discard())
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	runID := history.NewRunID()
	sink := NewHistorySink(store, runID, "fifo", logging.Discard())
	sink.Handle(sched.StatusEvent{Kind: sched.StatusDispatch, TaskID: 1})
	sink.Handle(sched.StatusEvent{
		Kind: sched.StatusFinish, TaskID: 1, Client: 55, SimMS: 400,
		RequestedMS: 100, AdmittedMS: 0, StartedMS: 300, Dispatches: 1,
	})

	var got []history.Retirement
	require.Eventually(t, func() bool {
		got, err = store.ListRun(context.Background(), runID)
		return err == nil && len(got) == 1
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, int32(55), got[0].Client)
	assert.Equal(t, uint32(400), got[0].FinishedMS)
	assert.Equal(t, uint32(300), got[0].Waiting())

	require.NoError(t, sink.Close())
}

// stuckRecorder blocks every Record until release is closed.
type stuckRecorder struct {
	release chan struct{}
	mu      sync.Mutex
	n       int
	closed  bool
}

func (r *stuckRecorder) Record(context.Context, history.Retirement) error {
	<-r.release
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return nil
}

func (r *stuckRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestHistorySink_SlowDatabaseDoesNotBlockHandle(t *testing.T) {
	rec := &stuckRecorder{release: make(chan struct{})}
	sink := NewHistorySink(rec, "run", "fifo", logging.Discard())

	handled := make(chan struct{})
	go func() {
		defer close(handled)
		for i := range historyBacklog + 10 {
			sink.Handle(sched.StatusEvent{Kind: sched.StatusFinish, TaskID: sched.TaskID(i + 1)})
		}
	}()
	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("Handle blocked on a stuck database")
	}

	close(rec.release)
	require.NoError(t, sink.Close())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.True(t, rec.closed)
	assert.GreaterOrEqual(t, rec.n, historyBacklog, "the backlog is written out on Close")
	assert.LessOrEqual(t, rec.n, historyBacklog+1)
}
