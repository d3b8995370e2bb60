package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// Retirement is one task that ran to completion during a simulation run.
type Retirement struct {
	RunID       string
	Policy      string
	TaskID      uint64
	Client      int32
	RequestedMS uint32
	AdmittedMS  uint32
	StartedMS   int64 // -1 if the task retired without ever being dispatched
	FinishedMS  uint32
	Dispatches  int
	RecordedAt  time.Time
}

// Turnaround is the simulated time from admission to retirement.
func (r Retirement) Turnaround() uint32 { return r.FinishedMS - r.AdmittedMS }

// Waiting is the part of the turnaround not spent on the CPU.
func (r Retirement) Waiting() uint32 {
	if ta := r.Turnaround(); ta > r.RequestedMS {
		return ta - r.RequestedMS
	}
	return 0
}

// Response is the simulated time from admission to first dispatch.
func (r Retirement) Response() uint32 {
	if r.StartedMS < int64(r.AdmittedMS) {
		return 0
	}
	return uint32(r.StartedMS) - r.AdmittedMS
}

// NewRunID returns a fresh identifier for one daemon run.
func NewRunID() string { return uuid.NewString() }

// Store records retirements in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path. Use ":memory:" in tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With("component", "history"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// Record appends one retirement.
func (s *Store) Record(ctx context.Context, r Retirement) error {
	s.logger.Debug("sql", "op", "insert", "table", "retirements", "run_id", r.RunID, "task_id", r.TaskID)

	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO retirements
			(run_id, policy, task_id, client_id, requested_ms, admitted_ms,
			 started_ms, finished_ms, dispatches, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Policy, r.TaskID, r.Client, r.RequestedMS, r.AdmittedMS,
		r.StartedMS, r.FinishedMS, r.Dispatches, r.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert retirement: %w", err)
	}
	return nil
}

// ListRun returns a run's retirements in the order they happened.
func (s *Store) ListRun(ctx context.Context, runID string) ([]Retirement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, policy, task_id, client_id, requested_ms, admitted_ms,
		       started_ms, finished_ms, dispatches, recorded_at
		FROM retirements
		WHERE run_id = ?
		ORDER BY finished_ms, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Retirement
	for rows.Next() {
		var (
			r        Retirement
			recorded string
		)
		if err := rows.Scan(&r.RunID, &r.Policy, &r.TaskID, &r.Client, &r.RequestedMS, &r.AdmittedMS,
			&r.StartedMS, &r.FinishedMS, &r.Dispatches, &recorded); err != nil {
			return nil, fmt.Errorf("scan retirement: %w", err)
		}
		r.RecordedAt, _ = time.Parse(time.RFC3339Nano, recorded)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunInfo describes one recorded run.
type RunInfo struct {
	RunID     string
	Policy    string
	Tasks     int
	FirstSeen time.Time
}

// Runs lists recorded runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, policy, COUNT(*), MIN(recorded_at), MIN(id) AS first_id
		FROM retirements
		GROUP BY run_id, policy
		ORDER BY first_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			info    RunInfo
			first   string
			firstID int64
		)
		if err := rows.Scan(&info.RunID, &info.Policy, &info.Tasks, &first, &firstID); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		info.FirstSeen, _ = time.Parse(time.RFC3339Nano, first)
		out = append(out, info)
	}
	return out, rows.Err()
}
