package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/filerepo-console/internal/models"
)

// InsertRequest stores a resolved ledger record. Re-inserting the same id
// replaces the row.
func (db *DB) InsertRequest(rec models.RequestRecord) error {
	query := `
		INSERT OR REPLACE INTO request_log (
			id, ts, method, url, status, outcome, duration_ms, byte_size, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := db.ExecContext(context.Background(), query,
		rec.ID,
		formatTime(ts),
		rec.Method,
		rec.URL,
		rec.Status,
		string(rec.Outcome),
		rec.DurationMs,
		rec.ByteSize,
		nullString(rec.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// RecentRequests returns the most recent persisted records, newest first.
func (db *DB) RecentRequests(limit int) ([]models.RequestRecord, error) {
	query := `
		SELECT id, ts, method, url, status, outcome, duration_ms, byte_size, note
		FROM request_log
		ORDER BY ts DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []models.RequestRecord
	for rows.Next() {
		var rec models.RequestRecord
		var ts, outcome string
		var note sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&ts,
			&rec.Method,
			&rec.URL,
			&rec.Status,
			&outcome,
			&rec.DurationMs,
			&rec.ByteSize,
			&note,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}

		rec.Timestamp = parseTime(ts)
		rec.Outcome = models.Outcome(outcome)
		rec.Note = note.String
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// LatencyByMethod aggregates persisted requests newer than since.
func (db *DB) LatencyByMethod(since time.Time) ([]models.MethodLatency, error) {
	query := `
		SELECT
			method,
			COUNT(*) AS calls,
			SUM(CASE WHEN outcome = 'failure' THEN 1 ELSE 0 END) AS errors,
			COALESCE(AVG(duration_ms), 0) AS avg_ms,
			COALESCE(MAX(duration_ms), 0) AS max_ms,
			COALESCE(SUM(byte_size), 0) AS total_bytes
		FROM request_log
		WHERE ts >= ?
		GROUP BY method
		ORDER BY calls DESC, method ASC
	`

	rows, err := db.QueryContext(context.Background(), query, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query latency by method: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.MethodLatency
	for rows.Next() {
		var m models.MethodLatency
		if err := rows.Scan(&m.Method, &m.Calls, &m.Errors, &m.AvgMs, &m.MaxMs, &m.TotalBytes); err != nil {
			return nil, fmt.Errorf("failed to scan latency row: %w", err)
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

// PruneRequests keeps only the newest keep rows.
func (db *DB) PruneRequests(keep int) (int64, error) {
	query := `
		DELETE FROM request_log
		WHERE id NOT IN (
			SELECT id FROM request_log ORDER BY ts DESC, id DESC LIMIT ?
		)
	`
	res, err := db.ExecContext(context.Background(), query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune requests: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// InsertSample stores one metric sample for the given target base URL.
func (db *DB) InsertSample(target string, s models.MetricSample) error {
	at := s.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO metric_samples (ts, value, target) VALUES (?, ?, ?)`,
		formatTime(at), s.Value, target,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// RecentSamples returns up to limit samples for target, oldest first.
func (db *DB) RecentSamples(target string, limit int) ([]models.MetricSample, error) {
	query := `
		SELECT ts, value FROM (
			SELECT id, ts, value FROM metric_samples
			WHERE target = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, target, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.MetricSample
	for rows.Next() {
		var ts string
		var v float64
		if err := rows.Scan(&ts, &v); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		out = append(out, models.NewMetricSample(v, parseTime(ts).Local()))
	}

	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullString converts an empty string to a NULL value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
