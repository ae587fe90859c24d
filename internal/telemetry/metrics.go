// Package telemetry exposes the console's own request metrics.
package telemetry

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/j-veylop/filerepo-console/internal/models"
)

// Metrics collects Prometheus metrics on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bytesIn         *prometheus.CounterVec
	inFlight        prometheus.Gauge
	remoteHealthy   prometheus.Gauge
	remoteCounter   prometheus.Gauge
	samplesTotal    *prometheus.CounterVec
}

// NewMetrics creates a collector with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frc_requests_total",
				Help: "Total number of resolved requests issued by the console",
			},
			[]string{"method", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "frc_request_duration_seconds",
				Help:    "Measured request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		bytesIn: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frc_response_bytes_total",
				Help: "Total response bytes received",
			},
			[]string{"method"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "frc_requests_in_flight",
				Help: "Number of requests appended to the ledger but not yet resolved",
			},
		),
		remoteHealthy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "frc_remote_healthy",
				Help: "Remote API health (1 = healthy, 0 = unhealthy, -1 = unknown)",
			},
		),
		remoteCounter: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "frc_remote_counter_value",
				Help: "Last request counter value parsed from the remote metrics endpoint",
			},
		),
		samplesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frc_metric_samples_total",
				Help: "Samples appended to the series, by whether a counter line matched",
			},
			[]string{"matched"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRecord is a ledger observer. Pending records raise the in-flight
// gauge and resolved ones lower it and are counted.
func (m *Metrics) ObserveRecord(rec models.RequestRecord) {
	if m == nil {
		return
	}

	method := strings.ToUpper(rec.Method)
	if method == "" {
		method = "unknown"
	}

	if !rec.Outcome.IsTerminal() {
		m.inFlight.Inc()
		return
	}

	m.inFlight.Dec()
	m.requestsTotal.WithLabelValues(method, string(rec.Outcome)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(rec.Duration().Seconds())
	if rec.ByteSize > 0 {
		m.bytesIn.WithLabelValues(method).Add(float64(rec.ByteSize))
	}
}

// UpdateRemoteHealth updates the remote health gauge.
func (m *Metrics) UpdateRemoteHealth(h models.HealthState) {
	if m == nil {
		return
	}
	switch {
	case !h.Known():
		m.remoteHealthy.Set(-1)
	case h.Healthy():
		m.remoteHealthy.Set(1)
	default:
		m.remoteHealthy.Set(0)
	}
}

// RecordSample records a series sample and whether it came from a match.
func (m *Metrics) RecordSample(s models.MetricSample, matched bool) {
	if m == nil {
		return
	}
	m.remoteCounter.Set(s.Value)
	if matched {
		m.samplesTotal.WithLabelValues("true").Inc()
	} else {
		m.samplesTotal.WithLabelValues("false").Inc()
	}
}
