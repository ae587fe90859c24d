package db

import (
	"context"
	"fmt"
)

// migrations are applied in order; the index+1 is stored in user_version.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS request_log (
		id TEXT PRIMARY KEY,
		ts TEXT NOT NULL,
		method TEXT NOT NULL,
		url TEXT NOT NULL,
		status INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		duration_ms REAL NOT NULL DEFAULT 0,
		byte_size INTEGER NOT NULL DEFAULT 0,
		note TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_request_log_ts ON request_log(ts);
	CREATE INDEX IF NOT EXISTS idx_request_log_method ON request_log(method);
	`,
	`
	CREATE TABLE IF NOT EXISTS metric_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts TEXT NOT NULL,
		value REAL NOT NULL DEFAULT 0,
		target TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_metric_samples_ts ON metric_samples(ts);
	`,
}

// SchemaVersion returns the applied migration count.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	if err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// migrate applies pending migrations inside a transaction each.
func (db *DB) migrate() error {
	current, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	ctx := context.Background()
	for i := current; i < len(migrations); i++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
