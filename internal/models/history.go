package models

import "time"

// TimeRange represents the selected audit history window.
type TimeRange int

const (
	// TimeRange1Hour shows requests from the last hour.
	TimeRange1Hour TimeRange = iota
	// TimeRange24Hours shows requests from the last 24 hours.
	TimeRange24Hours
	// TimeRange7Days shows requests from the last 7 days.
	TimeRange7Days
	// TimeRangeAllTime shows everything in the audit log.
	TimeRangeAllTime
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange1Hour:
		return "1 Hour"
	case TimeRange24Hours:
		return "24 Hours"
	case TimeRange7Days:
		return "7 Days"
	case TimeRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Window returns the lookback for the range. Zero means unlimited.
func (t TimeRange) Window() time.Duration {
	switch t {
	case TimeRange1Hour:
		return time.Hour
	case TimeRange24Hours:
		return 24 * time.Hour
	case TimeRange7Days:
		return 7 * 24 * time.Hour
	case TimeRangeAllTime:
		return 0
	default:
		return 24 * time.Hour
	}
}

// Since returns the lower time bound of the range relative to now.
// All Time yields the zero time.
func (t TimeRange) Since(now time.Time) time.Time {
	w := t.Window()
	if w == 0 {
		return time.Time{}
	}
	return now.Add(-w)
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// HourlyStats aggregates persisted requests in one hour bucket.
type HourlyStats struct {
	Hour          time.Time
	Calls         int
	Errors        int
	AvgDurationMs float64
	TotalBytes    int64
}

// HourlyPattern is the request volume for an hour of the day (0-23).
type HourlyPattern struct {
	Hour          int
	Calls         int
	AvgDurationMs float64
}

// PeakHour returns the busiest hour of the day and its call count.
func PeakHour(patterns []HourlyPattern) (hour, calls int) {
	for _, p := range patterns {
		if p.Calls > calls {
			hour, calls = p.Hour, p.Calls
		}
	}
	return hour, calls
}
