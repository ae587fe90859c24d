package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/j-veylop/filerepo-console/internal/models"
)

// hourLayout matches sqlHourBucket applied to timeLayout.
const hourLayout = "2006-01-02 15"

// HourlyRequests returns persisted request counts per hour bucket newer than
// since, oldest first. Hours without requests are not returned.
func (db *DB) HourlyRequests(since time.Time) ([]models.HourlyStats, error) {
	query := fmt.Sprintf(`
		SELECT
			%[1]s AS hour,
			COUNT(*) AS calls,
			SUM(CASE WHEN outcome = 'failure' THEN 1 ELSE 0 END) AS errors,
			COALESCE(AVG(duration_ms), 0) AS avg_ms,
			COALESCE(SUM(byte_size), 0) AS total_bytes
		FROM request_log
		%[2]s
		GROUP BY hour
		ORDER BY hour ASC
	`, sqlHourBucket, sqlSinceClause)

	rows, err := db.QueryContext(context.Background(), query, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.HourlyStats
	for rows.Next() {
		var hour sql.NullString
		var s models.HourlyStats
		if err := rows.Scan(&hour, &s.Calls, &s.Errors, &s.AvgDurationMs, &s.TotalBytes); err != nil {
			return nil, fmt.Errorf("failed to scan hourly row: %w", err)
		}
		if !hour.Valid {
			continue
		}
		t, err := time.ParseInLocation(hourLayout, hour.String, time.UTC)
		if err != nil {
			continue
		}
		s.Hour = t.Local()
		out = append(out, s)
	}

	return out, rows.Err()
}

// HourlyPatterns returns request volume by hour of day (UTC) newer than
// since. All 24 hours are present.
func (db *DB) HourlyPatterns(since time.Time) ([]models.HourlyPattern, error) {
	query := fmt.Sprintf(`
		SELECT
			substr(ts, 12, 2) AS hour,
			COUNT(*) AS calls,
			COALESCE(AVG(duration_ms), 0) AS avg_ms
		FROM request_log
		%s
		GROUP BY hour
		ORDER BY hour ASC
	`, sqlSinceClause)

	rows, err := db.QueryContext(context.Background(), query, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	patterns := make([]models.HourlyPattern, 24)
	for i := range 24 {
		patterns[i] = models.HourlyPattern{Hour: i}
	}

	for rows.Next() {
		var hour sql.NullString
		var calls int
		var avg float64
		if err := rows.Scan(&hour, &calls, &avg); err != nil {
			continue
		}
		h, err := strconv.Atoi(hour.String)
		if !hour.Valid || err != nil || h < 0 || h >= 24 {
			continue
		}
		patterns[h].Calls = calls
		patterns[h].AvgDurationMs = avg
	}

	return patterns, rows.Err()
}
