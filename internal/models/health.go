package models

import "time"

// HealthState is the most recent health probe result.
// OK is nil until the first probe resolves.
type HealthState struct {
	CheckedAt time.Time
	OK        *bool
	Message   string
}

// Known reports whether a probe has resolved at least once.
func (h HealthState) Known() bool {
	return h.OK != nil
}

// Healthy reports whether the last probe succeeded.
func (h HealthState) Healthy() bool {
	return h.OK != nil && *h.OK
}

// Label returns a short display string for the tri-state.
func (h HealthState) Label() string {
	switch {
	case h.OK == nil:
		return "unknown"
	case *h.OK:
		return "healthy"
	default:
		return "unhealthy"
	}
}

// NewHealthState builds a resolved health state.
func NewHealthState(ok bool, message string, at time.Time) HealthState {
	return HealthState{OK: &ok, Message: message, CheckedAt: at}
}

// MetricSample is one point of the polled request counter series.
type MetricSample struct {
	At        time.Time
	TimeLabel string
	Value     float64
}

// SampleTimeFormat is the layout used for MetricSample.TimeLabel.
const SampleTimeFormat = "15:04:05"

// NewMetricSample builds a sample labelled with its wall-clock time.
func NewMetricSample(value float64, at time.Time) MetricSample {
	return MetricSample{At: at, TimeLabel: at.Format(SampleTimeFormat), Value: value}
}

// Readiness mirrors the remote readiness endpoint payload.
type Readiness struct {
	Status   string `json:"status"`
	DB       string `json:"db"`
	Storage  string `json:"minio"`
	App      string `json:"app"`
	Draining bool   `json:"draining"`
}
