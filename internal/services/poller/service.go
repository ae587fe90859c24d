// Package poller runs the background health and metrics loop.
//
// Each run of the loop carries a generation number. Results are applied
// only while their generation is current, so a cycle that resolves after
// Stop or Restart never touches shared state.
package poller

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/filerepo-console/internal/exposition"
	"github.com/j-veylop/filerepo-console/internal/logger"
	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/transport"
)

// Remote endpoints probed every cycle.
const (
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
)

// Prober issues a GET through the request ledger and returns the response
// for any HTTP status.
type Prober interface {
	Probe(ctx context.Context, path string) (*transport.Result, error)
}

// EventType defines the type of poller event.
type EventType int

const (
	// EventHealth indicates that HealthState was replaced.
	EventHealth EventType = iota
	// EventSample indicates that a sample was appended to the series.
	EventSample
)

// Event represents a poller state change.
type Event struct {
	Health     *models.HealthState
	Sample     *models.MetricSample
	Type       EventType
	Generation uint64
	Matched    bool
}

// Config holds configuration for the poller.
type Config struct {
	Patterns   []*regexp.Regexp
	Interval   time.Duration
	MaxSamples int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Interval:   5 * time.Second,
		MaxSamples: 60,
		Patterns:   exposition.DefaultPatterns,
	}
}

// Service owns HealthState and the metric series.
type Service struct {
	prober     Prober
	now        func() time.Time
	cancel     context.CancelFunc
	done       chan struct{}
	eventChan  chan Event
	series     []models.MetricSample
	health     models.HealthState
	config     Config
	wg         sync.WaitGroup
	generation uint64
	mu         sync.RWMutex
	runMu      sync.Mutex
}

// New creates a stopped poller.
func New(prober Prober, config Config) *Service {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.MaxSamples <= 0 {
		config.MaxSamples = def.MaxSamples
	}
	if len(config.Patterns) == 0 {
		config.Patterns = def.Patterns
	}

	return &Service{
		prober:    prober,
		config:    config,
		now:       time.Now,
		eventChan: make(chan Event, 100),
	}
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Start begins polling. The first cycle runs immediately. Calling Start on
// a running poller does nothing.
func (s *Service) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.cancel != nil {
		return
	}
	s.startLocked()
}

// Stop cancels the loop. A cycle still in flight completes but its result
// is discarded.
func (s *Service) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.stopLocked()
}

// Restart cancels the current loop, waits for it to exit, clears health
// and the series, and starts again at cycle zero. The old and new loops
// never probe at the same time.
func (s *Service) Restart() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if done := s.stopLocked(); done != nil {
		<-done
	}

	s.mu.Lock()
	s.health = models.HealthState{}
	s.series = nil
	s.mu.Unlock()

	s.startLocked()
}

// Running reports whether a loop is active.
func (s *Service) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.cancel != nil
}

// Generation returns the current run generation. Events carrying an older
// generation come from a cancelled loop.
func (s *Service) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Close stops the loop and waits for every goroutine to exit.
func (s *Service) Close() error {
	s.Stop()
	s.wg.Wait()
	return nil
}

func (s *Service) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.wg.Add(1)
	go s.run(ctx, gen, done)

	logger.Debug("poller started", "generation", gen, "interval", s.config.Interval)
}

// stopLocked cancels the loop and returns a channel closed when its
// goroutine exits, or nil when nothing was running.
func (s *Service) stopLocked() <-chan struct{} {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.cancel = nil
	done := s.done
	s.done = nil

	// Bumping the generation invalidates any cycle still in flight.
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
	return done
}

// Health returns the latest health state.
func (s *Service) Health() models.HealthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// Series returns a copy of the metric series, oldest first.
func (s *Service) Series() []models.MetricSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MetricSample, len(s.series))
	copy(out, s.series)
	return out
}

// Values returns the series values, oldest first.
func (s *Service) Values() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]float64, len(s.series))
	for i, smp := range s.series {
		out[i] = smp.Value
	}
	return out
}

// Seed replaces the series, keeping the newest MaxSamples points. It is
// used to restore persisted history before the first cycle.
func (s *Service) Seed(samples []models.MetricSample) {
	if n := len(samples) - s.config.MaxSamples; n > 0 {
		samples = samples[n:]
	}
	s.mu.Lock()
	s.series = append([]models.MetricSample(nil), samples...)
	s.mu.Unlock()
}

func (s *Service) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer s.wg.Done()
	defer close(done)

	s.cycle(ctx, gen)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cycle(ctx, gen)
		case <-ctx.Done():
			return
		}
	}
}

// cycle probes health then metrics. A failure in one probe does not skip
// the other; only cancellation does.
func (s *Service) cycle(ctx context.Context, gen uint64) {
	if ctx.Err() != nil {
		return
	}
	s.probeHealth(ctx, gen)
	if ctx.Err() != nil {
		return
	}
	s.probeMetrics(ctx, gen)
}

func (s *Service) probeHealth(ctx context.Context, gen uint64) {
	res, err := s.prober.Probe(ctx, HealthPath)
	state := healthFromProbe(res, err, s.now())

	if !s.apply(ctx, gen, func() { s.health = state }) {
		return
	}
	s.sendEvent(Event{Type: EventHealth, Health: &state, Generation: gen})
}

// probeMetrics appends a sample for every response that carried text,
// whatever its status. Only a transport error skips the cycle.
func (s *Service) probeMetrics(ctx context.Context, gen uint64) {
	res, err := s.prober.Probe(ctx, MetricsPath)
	if err != nil {
		logger.Debug("metrics probe failed", "error", err)
		return
	}
	if !res.OK {
		logger.Debug("metrics probe returned an error status", "status", res.StatusCode)
	}

	value, matched := exposition.FirstCounter(res.Text(), s.config.Patterns)
	if !matched {
		value = 0
	}
	sample := models.NewMetricSample(value, s.now())

	if !s.apply(ctx, gen, func() { s.appendSample(sample) }) {
		return
	}
	s.sendEvent(Event{Type: EventSample, Sample: &sample, Matched: matched, Generation: gen})
}

// apply runs fn under the state lock if gen is still current.
func (s *Service) apply(ctx context.Context, gen uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil || gen != s.generation {
		return false
	}
	fn()
	return true
}

// appendSample must be called with mu held.
func (s *Service) appendSample(sample models.MetricSample) {
	s.series = append(s.series, sample)
	if n := len(s.series) - s.config.MaxSamples; n > 0 {
		s.series = append(s.series[:0:0], s.series[n:]...)
	}
}

func healthFromProbe(res *transport.Result, err error, at time.Time) models.HealthState {
	if err != nil {
		return models.NewHealthState(false, err.Error(), at)
	}

	body := res.Text()
	if res.OK {
		return models.NewHealthState(true, body, at)
	}
	if strings.TrimSpace(body) == "" {
		body = fmt.Sprintf("HTTP %d %s", res.StatusCode, http.StatusText(res.StatusCode))
	}
	return models.NewHealthState(false, body, at)
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}
