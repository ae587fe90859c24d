// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/filerepo-console/internal/config"
	"github.com/j-veylop/filerepo-console/internal/db"
	"github.com/j-veylop/filerepo-console/internal/idempotency"
	"github.com/j-veylop/filerepo-console/internal/ledger"
	"github.com/j-veylop/filerepo-console/internal/logger"
	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/services/files"
	"github.com/j-veylop/filerepo-console/internal/services/poller"
	"github.com/j-veylop/filerepo-console/internal/services/preferences"
	"github.com/j-veylop/filerepo-console/internal/telemetry"
	"github.com/j-veylop/filerepo-console/internal/transport"
	"github.com/j-veylop/filerepo-console/internal/version"
)

// Persisted request history is pruned to this many rows.
const historyRetention = 10000

type (
	// LedgerChangedEvent is emitted when a ledger record is appended or resolved.
	LedgerChangedEvent struct {
		Record models.RequestRecord
	}

	// HealthUpdatedEvent is emitted after every applied health probe.
	HealthUpdatedEvent struct {
		Health models.HealthState
	}

	// SampleAddedEvent is emitted when the metric series advances.
	SampleAddedEvent struct {
		Sample  models.MetricSample
		Matched bool
	}

	// PreferencesChangedEvent is emitted after preferences are applied.
	PreferencesChangedEvent struct {
		Prefs    preferences.Preferences
		External bool
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (LedgerChangedEvent) isServiceEvent()      {}
func (HealthUpdatedEvent) isServiceEvent()      {}
func (SampleAddedEvent) isServiceEvent()        {}
func (PreferencesChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()              {}

// Manager is the explicit orchestration context. It owns every service and
// routes their events to subscribers.
type Manager struct {
	cfg         *config.Config
	ledger      *ledger.Ledger
	keys        *idempotency.Generator
	files       *files.Service
	poller      *poller.Service
	prefs       *preferences.Service
	database    *db.DB
	metrics     *telemetry.Metrics
	server      *telemetry.Server
	notify      func(title, body string) error
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	persistChan chan func(*db.DB) error
	subscribers []chan<- ServiceEvent
	lastHealth  models.HealthState
	wg          sync.WaitGroup
	mu          sync.RWMutex
	retargetMu  sync.RWMutex
	closeOnce   sync.Once
}

// NewManager creates a new service manager. Polling starts with Start.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:         cfg,
		eventChan:   make(chan ServiceEvent, 100),
		stopChan:    make(chan struct{}),
		persistChan: make(chan func(*db.DB) error, 256),
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}

	if cfg.PersistenceEnabled() {
		database, err := db.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		m.database = database
	}

	m.prefs = preferences.New(cfg.PreferencesPath)
	prefs := m.prefs.Get()

	m.metrics = telemetry.NewMetrics()
	m.metrics.UpdateRemoteHealth(models.HealthState{})

	m.ledger = ledger.New(ledger.DefaultCapacity)
	m.ledger.Observe(m.metrics.ObserveRecord)
	m.ledger.Observe(m.observeRecord)

	m.keys = idempotency.NewGenerator(prefs.AutoIdempotency)
	m.files = files.New(transport.New(nil, cfg.RequestTimeout), m.ledger, m.keys, m.targetFor(prefs))
	m.files.SetUserAgent(version.UserAgent())

	pollCfg := poller.DefaultConfig()
	pollCfg.Interval = cfg.PollInterval
	m.poller = poller.New(m.files, pollCfg)

	if cfg.TelemetryEnabled() {
		m.server = telemetry.NewServer(m.metrics, m.ledger)
	}

	m.wg.Add(2)
	go m.routeEvents()
	go m.persistLoop()

	return m, nil
}

// Start begins health polling, watches the preferences file and serves
// telemetry when configured.
func (m *Manager) Start() error {
	if err := m.prefs.Watch(); err != nil {
		logger.Warn("preferences watch unavailable", "path", m.prefs.Path(), "error", err)
	}

	if m.server != nil {
		if err := m.server.Start(m.cfg.TelemetryAddr); err != nil {
			return fmt.Errorf("failed to start telemetry: %w", err)
		}
	}

	m.seedSeries()
	m.poller.Start()
	return nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	defer m.wg.Done()

	for {
		select {
		case event := <-m.poller.Events():
			m.handlePollerEvent(event)

		case event := <-m.prefs.Events():
			m.handlePreferencesEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handlePollerEvent applies events of the current poll run. Events queued by
// a run that was cancelled belong to a previous target and are dropped.
func (m *Manager) handlePollerEvent(event poller.Event) {
	m.retargetMu.RLock()
	current := event.Generation == m.poller.Generation()
	target := m.files.Target().BaseURL
	m.retargetMu.RUnlock()

	if !current {
		logger.Debug("dropped stale poller event", "generation", event.Generation)
		return
	}

	switch event.Type {
	case poller.EventHealth:
		if event.Health == nil {
			return
		}
		h := *event.Health
		m.metrics.UpdateRemoteHealth(h)
		m.checkHealthTransition(h)
		m.broadcast(HealthUpdatedEvent{Health: h})

	case poller.EventSample:
		if event.Sample == nil {
			return
		}
		s := *event.Sample
		m.metrics.RecordSample(s, event.Matched)
		m.persist(func(d *db.DB) error { return d.InsertSample(target, s) })
		m.broadcast(SampleAddedEvent{Sample: s, Matched: event.Matched})
	}
}

func (m *Manager) handlePreferencesEvent(event preferences.Event) {
	switch event.Type {
	case preferences.EventChanged:
		m.applyPreferences(event.Prefs)
		m.broadcast(PreferencesChangedEvent{Prefs: event.Prefs, External: event.External})

	case preferences.EventError:
		m.broadcast(ErrorEvent{Service: "preferences", Error: event.Error})
	}
}

// applyPreferences rebuilds the request target. A changed target restarts
// the poller so no stale cycle lands on the new series.
func (m *Manager) applyPreferences(p preferences.Preferences) {
	m.keys.SetEnabled(p.AutoIdempotency)

	m.retargetMu.Lock()
	defer m.retargetMu.Unlock()

	next := m.targetFor(p)
	if next == m.files.Target() {
		return
	}
	m.files.SetTarget(next)
	logger.Info("target changed", "base_url", next.BaseURL)

	m.mu.Lock()
	m.lastHealth = models.HealthState{}
	m.mu.Unlock()
	m.metrics.UpdateRemoteHealth(models.HealthState{})

	if m.poller.Running() {
		m.poller.Restart()
	}
}

// targetFor overlays non-empty preferences on the environment config.
func (m *Manager) targetFor(p preferences.Preferences) files.Target {
	t := files.Target{
		BaseURL:  m.cfg.BaseURL,
		APIKey:   m.cfg.APIKey,
		AdminKey: m.cfg.AdminKey,
	}
	if p.BaseURL != "" {
		t.BaseURL = p.BaseURL
	}
	if p.APIKey != "" {
		t.APIKey = p.APIKey
	}
	if p.AdminKey != "" {
		t.AdminKey = p.AdminKey
	}
	return t
}

// checkHealthTransition notifies when health flips between healthy and
// unhealthy. The first known state never notifies.
func (m *Manager) checkHealthTransition(h models.HealthState) {
	m.mu.Lock()
	prev := m.lastHealth
	m.lastHealth = h
	m.mu.Unlock()

	if !m.cfg.Notifications || !prev.Known() || !h.Known() || prev.Healthy() == h.Healthy() {
		return
	}

	target := m.files.Target().BaseURL
	title := fmt.Sprintf("File API recovered: %s", target)
	if !h.Healthy() {
		title = fmt.Sprintf("File API unhealthy: %s", target)
	}
	if err := m.notify(title, h.Message); err != nil {
		logger.Debug("notification failed", "error", err)
	}
}

// observeRecord forwards ledger changes and queues resolved records for
// the audit log.
func (m *Manager) observeRecord(rec models.RequestRecord) {
	if rec.Outcome.IsTerminal() {
		m.persist(func(d *db.DB) error { return d.InsertRequest(rec) })
	}
	m.broadcast(LedgerChangedEvent{Record: rec})
}

// persist queues a write without blocking the caller.
func (m *Manager) persist(job func(*db.DB) error) {
	if m.database == nil {
		return
	}
	select {
	case m.persistChan <- job:
	default:
		logger.Warn("audit log queue full, dropping write")
	}
}

// persistLoop applies queued writes in order.
func (m *Manager) persistLoop() {
	defer m.wg.Done()

	writes := 0
	run := func(job func(*db.DB) error) {
		if err := job(m.database); err != nil {
			logger.Error("audit log write failed", "error", err)
			return
		}
		writes++
		if writes%500 == 0 {
			if n, err := m.database.PruneRequests(historyRetention); err == nil && n > 0 {
				logger.Debug("pruned request history", "rows", n)
				if err := m.database.Vacuum(); err != nil {
					logger.Warn("failed to vacuum database", "error", err)
				}
			}
		}
	}

	for {
		select {
		case job := <-m.persistChan:
			run(job)
		case <-m.stopChan:
			for {
				select {
				case job := <-m.persistChan:
					run(job)
				default:
					return
				}
			}
		}
	}
}

// seedSeries restores the persisted series for the current target.
func (m *Manager) seedSeries() {
	if m.database == nil {
		return
	}
	samples, err := m.database.RecentSamples(m.files.Target().BaseURL, poller.DefaultConfig().MaxSamples)
	if err != nil {
		logger.Warn("failed to load sample history", "error", err)
		return
	}
	m.poller.Seed(samples)
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// UpdatePreferences edits and persists preferences. The change is applied
// asynchronously and announced with a PreferencesChangedEvent.
func (m *Manager) UpdatePreferences(fn func(*preferences.Preferences)) preferences.Preferences {
	return m.prefs.Update(fn)
}

// DownloadDir returns where downloads are saved.
func (m *Manager) DownloadDir() string {
	if dir := m.prefs.Get().DownloadDir; dir != "" {
		return dir
	}
	return m.cfg.DownloadDir
}

// History returns persisted request records, newest first.
func (m *Manager) History(limit int) ([]models.RequestRecord, error) {
	if m.database == nil {
		return nil, errors.New("audit log disabled")
	}
	return m.database.RecentRequests(limit)
}

// LatencyByMethod aggregates persisted requests over the given window.
func (m *Manager) LatencyByMethod(window time.Duration) ([]models.MethodLatency, error) {
	if m.database == nil {
		return nil, errors.New("audit log disabled")
	}
	return m.database.LatencyByMethod(historySince(window))
}

// HourlyHistory returns persisted requests bucketed per hour and by hour of
// day over the given window.
func (m *Manager) HourlyHistory(window time.Duration) ([]models.HourlyStats, []models.HourlyPattern, error) {
	if m.database == nil {
		return nil, nil, errors.New("audit log disabled")
	}
	since := historySince(window)
	hourly, err := m.database.HourlyRequests(since)
	if err != nil {
		return nil, nil, err
	}
	patterns, err := m.database.HourlyPatterns(since)
	if err != nil {
		return hourly, nil, err
	}
	return hourly, patterns, nil
}

// historySince converts a lookback window to a lower bound. A non-positive
// window means no bound.
func historySince(window time.Duration) time.Time {
	if window <= 0 {
		return time.Time{}
	}
	return time.Now().Add(-window)
}

// TelemetryAddr returns the telemetry listen address, or "" when disabled.
func (m *Manager) TelemetryAddr() string {
	if m.server == nil {
		return ""
	}
	return m.server.Addr()
}

// Config returns the environment configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Ledger returns the request ledger.
func (m *Manager) Ledger() *ledger.Ledger {
	return m.ledger
}

// Files returns the file operations service.
func (m *Manager) Files() *files.Service {
	return m.files
}

// Poller returns the background poller.
func (m *Manager) Poller() *poller.Service {
	return m.poller
}

// Preferences returns the preferences service.
func (m *Manager) Preferences() *preferences.Service {
	return m.prefs
}

// Idempotency returns the idempotency key generator.
func (m *Manager) Idempotency() *idempotency.Generator {
	return m.keys
}

// Metrics returns the telemetry collector.
func (m *Manager) Metrics() *telemetry.Metrics {
	return m.metrics
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		if err := m.poller.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := m.prefs.Close(); err != nil {
			errs = append(errs, err)
		}
		if m.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := m.server.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
			cancel()
		}

		close(m.stopChan)
		m.wg.Wait()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	return errors.Join(errs...)
}
