package history

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for the history database.
// Each statement uses IF NOT EXISTS so Migrate is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS retirements (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       TEXT    NOT NULL,
		policy       TEXT    NOT NULL,
		task_id      INTEGER NOT NULL,
		client_id    INTEGER NOT NULL,
		requested_ms INTEGER NOT NULL,
		admitted_ms  INTEGER NOT NULL,
		started_ms   INTEGER NOT NULL,
		finished_ms  INTEGER NOT NULL,
		dispatches   INTEGER NOT NULL DEFAULT 0,
		recorded_at  TEXT    NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_retirements_run_id ON retirements(run_id)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
