// Package models defines data structures and domain types.
package models

import "time"

// Outcome is the resolution state of a ledger record.
type Outcome string

// Outcome values. Pending is the only non-terminal one.
const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// IsTerminal reports whether the outcome is final.
func (o Outcome) IsTerminal() bool {
	return o == OutcomeSuccess || o == OutcomeFailure
}

// RequestRecord is one audited HTTP call issued by the console.
type RequestRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	Outcome    Outcome   `json:"outcome"`
	Note       string    `json:"note,omitempty"`
	Status     int       `json:"status,omitempty"`
	DurationMs float64   `json:"durationMs,omitempty"`
	ByteSize   int64     `json:"byteSize,omitempty"`
}

// HasStatus reports whether an HTTP status was received for the record.
func (r RequestRecord) HasStatus() bool {
	return r.Status > 0
}

// Duration returns the measured duration as a time.Duration.
func (r RequestRecord) Duration() time.Duration {
	return time.Duration(r.DurationMs * float64(time.Millisecond))
}

// LatencyStats aggregates resolved record durations.
type LatencyStats struct {
	Total   int
	Pending int
	Success int
	Failure int
	AvgMs   float64
	P50Ms   float64
	P95Ms   float64
	MaxMs   float64
}

// ErrorRate returns the failure share of resolved records.
func (s LatencyStats) ErrorRate() float64 {
	resolved := s.Success + s.Failure
	if resolved == 0 {
		return 0
	}
	return float64(s.Failure) / float64(resolved) * 100
}

// MethodLatency is a persisted per-method latency aggregate.
type MethodLatency struct {
	Method     string
	Calls      int
	Errors     int
	AvgMs      float64
	MaxMs      float64
	TotalBytes int64
}
