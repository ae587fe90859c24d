package app

import (
	"time"

	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/services"
	"github.com/j-veylop/filerepo-console/internal/services/files"
	"github.com/j-veylop/filerepo-console/internal/services/preferences"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// LedgerRefreshedMsg carries a fresh ledger snapshot for the tabs.
type LedgerRefreshedMsg struct {
	Records []models.RequestRecord
	Stats   models.LatencyStats
}

// HealthChangedMsg is forwarded to tabs after a health probe resolves.
type HealthChangedMsg struct {
	Health models.HealthState
}

// SeriesChangedMsg is forwarded to tabs after the metric series advances.
type SeriesChangedMsg struct {
	Series  []models.MetricSample
	Matched bool
}

// PreferencesAppliedMsg is forwarded to tabs after preferences change.
type PreferencesAppliedMsg struct {
	Prefs    preferences.Preferences
	External bool
}

// UploadMsg requests a new-file upload.
type UploadMsg struct {
	Input files.UploadInput
}

// DownloadMsg requests a versioned retrieval.
type DownloadMsg struct {
	Input files.DownloadInput
}

// PutVersionMsg requests a new version of an existing file.
type PutVersionMsg struct {
	Input files.PutVersionInput
}

// DeleteMsg requests removal of a file.
type DeleteMsg struct {
	Input files.DeleteInput
}

// ReadinessMsg requests a readiness check.
type ReadinessMsg struct{}

// DrainMsg requests a drain-mode change.
type DrainMsg struct {
	Draining bool
}

// OperationStartedMsg is forwarded to tabs when an operation begins.
type OperationStartedMsg struct {
	Op models.Operation
}

// OperationResultMsg carries the result of a file operation.
type OperationResultMsg struct {
	Result models.OperationResult
}

// SavePreferencesMsg requests a preferences update.
type SavePreferencesMsg struct {
	Prefs preferences.Preferences
}

// LoadHistoryMsg requests persisted history from the audit log. A zero
// Window loads all time.
type LoadHistoryMsg struct {
	Limit  int
	Window time.Duration
}

// HistoryLoadedMsg carries persisted history.
type HistoryLoadedMsg struct {
	Error    error
	Records  []models.RequestRecord
	Latency  []models.MethodLatency
	Hourly   []models.HourlyStats
	Patterns []models.HourlyPattern
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearNotificationsMsg requests clearing all notifications.
type ClearNotificationsMsg struct{}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// CopyToClipboardMsg requests copying text to clipboard.
type CopyToClipboardMsg struct {
	Label string
	Text  string
}

// ClipboardResultMsg contains the result of a clipboard operation.
type ClipboardResultMsg struct {
	Error   error
	Label   string
	Success bool
}
