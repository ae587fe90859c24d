package app

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/services"
	"github.com/j-veylop/filerepo-console/internal/services/preferences"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// DefaultHistoryLimit bounds the persisted rows loaded at once.
	DefaultHistoryLimit = 500

	// DefaultHistoryWindow is the aggregation window for per-method latency.
	DefaultHistoryWindow = 24 * time.Hour
)

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadLedgerCmd returns a command that snapshots the in-memory ledger.
func loadLedgerCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		l := mgr.Ledger()
		return LedgerRefreshedMsg{Records: l.Records(), Stats: l.Stats()}
	}
}

// loadHistoryCmd returns a command that reads the persisted audit log.
func loadHistoryCmd(mgr *services.Manager, limit int, window time.Duration) tea.Cmd {
	return func() tea.Msg {
		records, err := mgr.History(limit)
		if err != nil {
			return HistoryLoadedMsg{Error: err}
		}
		latency, err := mgr.LatencyByMethod(window)
		if err != nil {
			return HistoryLoadedMsg{Records: records, Error: err}
		}
		hourly, patterns, err := mgr.HourlyHistory(window)
		return HistoryLoadedMsg{
			Records:  records,
			Latency:  latency,
			Hourly:   hourly,
			Patterns: patterns,
			Error:    err,
		}
	}
}

// operationCmd runs a file operation off the update loop.
func operationCmd(mgr *services.Manager, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		f := mgr.Files()

		var res models.OperationResult
		switch msg := msg.(type) {
		case UploadMsg:
			res = f.Upload(ctx, msg.Input)
		case DownloadMsg:
			in := msg.Input
			if in.SaveDir == "" {
				in.SaveDir = mgr.DownloadDir()
			}
			res = f.Download(ctx, in)
		case PutVersionMsg:
			res = f.PutVersion(ctx, msg.Input)
		case DeleteMsg:
			res = f.Delete(ctx, msg.Input)
		case ReadinessMsg:
			res = f.Readiness(ctx)
		case DrainMsg:
			res = f.SetDrain(ctx, msg.Draining)
		default:
			return nil
		}
		return OperationResultMsg{Result: res}
	}
}

// operationFor maps a request message to the operation it starts.
func operationFor(msg tea.Msg) (models.Operation, bool) {
	switch msg.(type) {
	case UploadMsg:
		return models.OpUpload, true
	case DownloadMsg:
		return models.OpDownload, true
	case PutVersionMsg:
		return models.OpPut, true
	case DeleteMsg:
		return models.OpDelete, true
	case ReadinessMsg:
		return models.OpReadiness, true
	case DrainMsg:
		return models.OpDrain, true
	}
	return "", false
}

// savePreferencesCmd applies and persists new preferences.
func savePreferencesCmd(mgr *services.Manager, p preferences.Preferences) tea.Cmd {
	return func() tea.Msg {
		mgr.UpdatePreferences(func(cur *preferences.Preferences) {
			*cur = p
		})
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  "Settings saved",
			Duration: QuickNotificationDuration,
		}
	}
}

// copyToClipboardCmd writes text to the system clipboard.
func copyToClipboardCmd(label, text string) tea.Cmd {
	return func() tea.Msg {
		err := writeClipboard(text)
		return ClipboardResultMsg{Label: label, Success: err == nil, Error: err}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// Commands provides a public interface to the command functions.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// LoadLedger returns a command that snapshots the ledger.
func (c *Commands) LoadLedger() tea.Cmd {
	return loadLedgerCmd(c.manager)
}

// LoadHistory returns a command that reads the audit log.
func (c *Commands) LoadHistory(limit int, window time.Duration) tea.Cmd {
	return loadHistoryCmd(c.manager, limit, window)
}

// Run returns a command that executes the operation named by msg.
func (c *Commands) Run(msg tea.Msg) tea.Cmd {
	return operationCmd(c.manager, msg)
}

// CopyToClipboard returns a command that copies text.
func (c *Commands) CopyToClipboard(label, text string) tea.Cmd {
	return copyToClipboardCmd(label, text)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}
