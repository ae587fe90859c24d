// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/services/preferences"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Duration  time.Duration
	Type      NotificationType
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// State is the shared view state. The root model writes it from service
// events and tabs read it when rendering.
type State struct {
	LastUpdated     time.Time
	Health          models.HealthState
	Prefs           preferences.Preferences
	Records         []models.RequestRecord
	Series          []models.MetricSample
	Latency         []models.MethodLatency
	Hourly          []models.HourlyStats
	Patterns        []models.HourlyPattern
	results         map[models.Operation]models.OperationResult
	inFlight        map[models.Operation]bool
	notifications   []Notification
	Stats           models.LatencyStats
	notificationSeq int
	mu              sync.RWMutex
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		results:       make(map[models.Operation]models.OperationResult),
		inFlight:      make(map[models.Operation]bool),
		notifications: make([]Notification, 0),
	}
}

// SetRecords replaces the ledger snapshot and its summary.
func (s *State) SetRecords(records []models.RequestRecord, stats models.LatencyStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = records
	s.Stats = stats
	s.LastUpdated = time.Now()
}

// GetRecords returns a copy of the ledger snapshot, newest first.
func (s *State) GetRecords() []models.RequestRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RequestRecord, len(s.Records))
	copy(out, s.Records)
	return out
}

// GetStats returns the ledger summary.
func (s *State) GetStats() models.LatencyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// SetHealth stores the latest health state.
func (s *State) SetHealth(h models.HealthState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Health = h
}

// GetHealth returns the latest health state.
func (s *State) GetHealth() models.HealthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Health
}

// SetSeries replaces the metric series.
func (s *State) SetSeries(series []models.MetricSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Series = series
}

// GetSeries returns a copy of the metric series, oldest first.
func (s *State) GetSeries() []models.MetricSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MetricSample, len(s.Series))
	copy(out, s.Series)
	return out
}

// SetLatency stores persisted per-method aggregates.
func (s *State) SetLatency(l []models.MethodLatency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Latency = l
}

// GetLatency returns persisted per-method aggregates.
func (s *State) GetLatency() []models.MethodLatency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Latency
}

// SetHourly stores persisted hourly aggregates.
func (s *State) SetHourly(hourly []models.HourlyStats, patterns []models.HourlyPattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Hourly = hourly
	s.Patterns = patterns
}

// GetHourly returns persisted hourly aggregates.
func (s *State) GetHourly() ([]models.HourlyStats, []models.HourlyPattern) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Hourly, s.Patterns
}

// SetPreferences stores the applied preferences.
func (s *State) SetPreferences(p preferences.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Prefs = p
}

// GetPreferences returns the applied preferences.
func (s *State) GetPreferences() preferences.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Prefs
}

// BeginOperation marks op as in flight. It reports false when op is
// already running, so a form cannot double-submit.
func (s *State) BeginOperation(op models.Operation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[op] {
		return false
	}
	s.inFlight[op] = true
	return true
}

// FinishOperation stores the result and clears the in-flight mark.
func (s *State) FinishOperation(res models.OperationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, res.Op)
	s.results[res.Op] = res
}

// InFlight reports whether op is running.
func (s *State) InFlight(op models.Operation) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight[op]
}

// Phase returns the lifecycle phase of the latest invocation of op.
func (s *State) Phase(op models.Operation) models.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.inFlight[op] {
		return models.PhaseInFlight
	}
	if res, ok := s.results[op]; ok {
		return res.Phase
	}
	return models.PhaseIdle
}

// Result returns the latest result of op.
func (s *State) Result(op models.Operation) (models.OperationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[op]
	return res, ok
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns the last time the ledger snapshot changed.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}
