package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/services"
	"github.com/j-veylop/filerepo-console/internal/services/files"
	"github.com/j-veylop/filerepo-console/internal/services/preferences"
)

// fakeTab records the messages it receives.
type fakeTab struct {
	received  []tea.Msg
	width     int
	height    int
	capturing bool
}

func (f *fakeTab) Init() tea.Cmd { return nil }

func (f *fakeTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	f.received = append(f.received, msg)
	return f, nil
}

func (f *fakeTab) View() string { return "fake tab body" }

func (f *fakeTab) SetSize(width, height int) { f.width, f.height = width, height }

func (f *fakeTab) ShortHelp() []key.Binding {
	return []key.Binding{key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload"))}
}

func (f *fakeTab) FullHelp() [][]key.Binding { return [][]key.Binding{f.ShortHelp()} }

func (f *fakeTab) CapturingInput() bool { return f.capturing }

func (f *fakeTab) keys() []tea.KeyMsg {
	var out []tea.KeyMsg
	for _, m := range f.received {
		if k, ok := m.(tea.KeyMsg); ok {
			out = append(out, k)
		}
	}
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabConsole {
		t.Error("Default tab should be Console")
	}
	if len(model.tabs) != 4 {
		t.Errorf("Should have 4 tab placeholders, got %d", len(model.tabs))
	}
}

func TestNewModel_SeedsStateFromManager(t *testing.T) {
	mgr := newTestManager(t, false)
	mgr.UpdatePreferences(func(p *preferences.Preferences) { p.DownloadDir = "/tmp/dl" })

	model := NewModel(mgr)
	if model.state.GetPreferences().DownloadDir != "/tmp/dl" {
		t.Errorf("prefs = %+v", model.state.GetPreferences())
	}
	if model.GetServices() != mgr {
		t.Error("GetServices should return the manager")
	}
}

func TestModel_Init(t *testing.T) {
	model := NewModel(nil)
	if cmd := model.Init(); cmd == nil {
		t.Error("Init returned nil command")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil)
	tab := &fakeTab{}
	model.SetTabs([]Tab{tab, nil, nil, nil})

	newModel, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	m, ok := newModel.(*Model)
	if !ok {
		t.Fatal("Update returned wrong model type")
	}

	if m.GetWidth() != 100 || m.GetHeight() != 50 {
		t.Errorf("size = %dx%d, want 100x50", m.GetWidth(), m.GetHeight())
	}
	if !m.IsReady() {
		t.Error("Model should be ready after WindowSizeMsg")
	}
	if tab.width != 100 || tab.height != 45 {
		t.Errorf("tab size = %dx%d, want 100x45", tab.width, tab.height)
	}
}

func TestModel_TabSwitching(t *testing.T) {
	model := NewModel(nil)

	model.Update(TabSwitchMsg{Tab: TabHealth})
	if model.GetActiveTab() != TabHealth {
		t.Errorf("ActiveTab = %v, want Health", model.GetActiveTab())
	}

	model.Update(runes("4"))
	if model.GetActiveTab() != TabSettings {
		t.Errorf("ActiveTab = %v, want Settings", model.GetActiveTab())
	}

	model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.GetActiveTab() != TabConsole {
		t.Errorf("ActiveTab = %v, want Console after wrap", model.GetActiveTab())
	}

	model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if model.GetActiveTab() != TabSettings {
		t.Errorf("ActiveTab = %v, want Settings after reverse wrap", model.GetActiveTab())
	}

	model.Update(TabSwitchMsg{Tab: TabID(42)})
	if model.GetActiveTab() != TabSettings {
		t.Error("out of range tab should be ignored")
	}
}

func TestModel_CapturingTabReceivesKeys(t *testing.T) {
	model := NewModel(nil)
	tab := &fakeTab{capturing: true}
	model.SetTabs([]Tab{tab, nil, nil, nil})

	for _, k := range []tea.KeyMsg{runes("2"), runes("q"), runes("?")} {
		_, cmd := model.Update(k)
		if cmd != nil {
			if _, quit := cmd().(tea.QuitMsg); quit {
				t.Fatal("q should not quit while a tab captures input")
			}
		}
	}
	if model.GetActiveTab() != TabConsole {
		t.Error("digit keys should reach the tab, not switch tabs")
	}
	if model.showHelp {
		t.Error("? should reach the tab while capturing")
	}
	if got := len(tab.keys()); got != 3 {
		t.Errorf("tab received %d keys, want 3", got)
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should always quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should return tea.Quit")
	}
}

func TestModel_GlobalKeysNotForwarded(t *testing.T) {
	model := NewModel(nil)
	tab := &fakeTab{}
	model.SetTabs([]Tab{tab, nil, nil, nil})

	model.Update(runes("?"))
	if !model.showHelp {
		t.Fatal("? should open help")
	}
	if len(tab.keys()) != 0 {
		t.Error("handled global keys should not reach the tab")
	}

	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.showHelp {
		t.Error("esc should close help")
	}

	model.Update(runes("u"))
	if len(tab.keys()) != 1 {
		t.Error("unhandled keys should reach the tab")
	}
}

func TestModel_Quit(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(TickMsg{Time: time.Now()})
	if cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)

	if view := model.View(); !strings.Contains(view, "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model.Update(tea.WindowSizeMsg{Width: 100, Height: 24})
	view := model.View()
	for _, name := range []string{"Console", "Requests", "Health", "Settings"} {
		if !strings.Contains(view, name) {
			t.Errorf("navbar missing %s", name)
		}
	}
	if !strings.Contains(view, "unknown") {
		t.Error("navbar should show unknown health before the first probe")
	}
	if !strings.Contains(view, "not available") {
		t.Error("View should show placeholder text")
	}

	model.state.SetHealth(models.NewHealthState(true, "ok", time.Now()))
	if !strings.Contains(model.View(), "healthy") {
		t.Error("navbar should show healthy")
	}
}

func TestModel_Help(t *testing.T) {
	model := NewModel(nil)
	model.SetTabs([]Tab{&fakeTab{}, nil, nil, nil})
	model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	model.Update(ToggleHelpMsg{})
	if !model.showHelp {
		t.Fatal("showHelp should be true")
	}

	view := model.View()
	if !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("View should show help modal")
	}
	if !strings.Contains(view, "Console Tab") {
		t.Error("help should list the active tab's bindings")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := NewModel(nil)

	model.Update(AddNotificationMsg{Message: "Test Note", Type: NotificationInfo})
	if len(model.state.GetNotifications()) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(model.state.GetNotifications()))
	}

	model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(model.View(), "Test Note") {
		t.Error("View should show notification")
	}

	model.Update(ClearNotificationsMsg{})
	if len(model.state.GetNotifications()) != 0 {
		t.Error("ClearNotificationsMsg should clear notifications")
	}
}

func TestModel_HandleServiceEvent(t *testing.T) {
	model := NewModel(nil)
	now := time.Now()

	cmd := model.handleServiceEvent(services.HealthUpdatedEvent{Health: models.NewHealthState(false, "down", now)})
	if model.state.GetHealth().Message != "down" {
		t.Error("health should be stored")
	}
	if msg, ok := cmd().(HealthChangedMsg); !ok || msg.Health.Message != "down" {
		t.Errorf("expected HealthChangedMsg, got %T", cmd())
	}

	p := preferences.Defaults()
	p.BaseURL = "http://other:9000"
	cmd = model.handleServiceEvent(services.PreferencesChangedEvent{Prefs: p})
	if model.state.GetPreferences().BaseURL != "http://other:9000" {
		t.Error("preferences should be stored")
	}
	if cmd == nil {
		t.Error("preferences change should be forwarded")
	}

	cmd = model.handleServiceEvent(services.ErrorEvent{Service: "preferences", Error: errors.New("boom")})
	msg, ok := cmd().(AddNotificationMsg)
	if !ok || msg.Type != NotificationError || msg.Message != "[preferences] boom" {
		t.Errorf("error event = %+v", msg)
	}

	// Without a manager the ledger event has nothing to load.
	if cmd := model.handleServiceEvent(services.LedgerChangedEvent{}); cmd != nil {
		t.Error("ledger event without manager should be ignored")
	}
}

func TestModel_SampleEventSyncsSeries(t *testing.T) {
	mgr := newTestManager(t, false)
	mgr.Poller().Seed([]models.MetricSample{models.NewMetricSample(3, time.Now())})

	model := NewModel(mgr)
	cmd := model.handleServiceEvent(services.SampleAddedEvent{Sample: models.NewMetricSample(3, time.Now()), Matched: true})

	msg, ok := cmd().(SeriesChangedMsg)
	if !ok {
		t.Fatalf("expected SeriesChangedMsg, got %T", cmd())
	}
	if len(msg.Series) != 1 || !msg.Matched {
		t.Errorf("series msg = %+v", msg)
	}
}

func TestModel_OperationFlow(t *testing.T) {
	mgr := newTestManager(t, false)
	model := NewModel(mgr)

	cmds := model.handleOperationRequest(DeleteMsg{Input: files.DeleteInput{FileID: "abc"}})
	if len(cmds) != 2 {
		t.Fatalf("expected start and run commands, got %d", len(cmds))
	}
	if !model.state.InFlight(models.OpDelete) {
		t.Error("delete should be in flight")
	}

	// A second submit is rejected with a warning.
	again := model.handleOperationRequest(DeleteMsg{Input: files.DeleteInput{FileID: "abc"}})
	if len(again) != 1 {
		t.Fatalf("duplicate submit should yield one warning, got %d cmds", len(again))
	}
	if warn, ok := again[0]().(AddNotificationMsg); !ok || warn.Type != NotificationWarning {
		t.Errorf("duplicate submit = %+v", warn)
	}

	if started, ok := cmds[0]().(OperationStartedMsg); !ok || started.Op != models.OpDelete {
		t.Errorf("start msg = %+v", started)
	}
	result := cmds[1]()
	model.Update(result)

	if model.state.Phase(models.OpDelete) != models.PhaseSucceeded {
		t.Errorf("Phase = %s, want succeeded", model.state.Phase(models.OpDelete))
	}
}

func TestModel_OperationWithoutManager(t *testing.T) {
	model := NewModel(nil)
	if cmds := model.handleOperationRequest(UploadMsg{}); cmds != nil {
		t.Error("operations need a manager")
	}
	if model.state.InFlight(models.OpUpload) {
		t.Error("nothing should be marked in flight")
	}
}

func TestModel_OperationResultNotifications(t *testing.T) {
	tests := []struct {
		phase models.Phase
		want  NotificationType
	}{
		{models.PhaseSucceeded, NotificationSuccess},
		{models.PhaseAborted, NotificationWarning},
		{models.PhaseFailed, NotificationError},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			model := NewModel(nil)
			model.state.BeginOperation(models.OpUpload)

			cmds := model.handleOperationResult(OperationResultMsg{Result: models.OperationResult{
				Op: models.OpUpload, Phase: tt.phase, Message: "m",
			}})
			msg, ok := cmds[0]().(AddNotificationMsg)
			if !ok || msg.Type != tt.want {
				t.Errorf("notification = %+v, want type %v", msg, tt.want)
			}
			if model.state.InFlight(models.OpUpload) {
				t.Error("result should clear in-flight")
			}
		})
	}
}

func TestModel_ClipboardResult(t *testing.T) {
	model := NewModel(nil)

	msg := model.handleClipboardResult(ClipboardResultMsg{Success: true, Label: "Checksum"})().(AddNotificationMsg)
	if msg.Message != "Checksum copied to clipboard" {
		t.Errorf("Message = %q", msg.Message)
	}

	msg = model.handleClipboardResult(ClipboardResultMsg{Error: errors.New("no display")})().(AddNotificationMsg)
	if msg.Type != NotificationError {
		t.Errorf("Type = %v, want error", msg.Type)
	}
}

func TestModel_LedgerAndHistoryMessages(t *testing.T) {
	model := NewModel(nil)

	model.Update(LedgerRefreshedMsg{
		Records: []models.RequestRecord{{ID: "1"}},
		Stats:   models.LatencyStats{Total: 1},
	})
	if len(model.state.GetRecords()) != 1 {
		t.Error("ledger snapshot should be stored")
	}

	model.Update(HistoryLoadedMsg{
		Latency:  []models.MethodLatency{{Method: "GET"}},
		Hourly:   []models.HourlyStats{{Calls: 2}},
		Patterns: make([]models.HourlyPattern, 24),
	})
	if len(model.state.GetLatency()) != 1 {
		t.Error("latency should be stored")
	}
	if hourly, patterns := model.state.GetHourly(); len(hourly) != 1 || len(patterns) != 24 {
		t.Error("hourly aggregates should be stored")
	}

	model.Update(HistoryLoadedMsg{Error: errors.New("audit log disabled")})
	if len(model.state.GetLatency()) != 1 {
		t.Error("a failed load should keep the previous latency")
	}
}

func TestModel_ErrorMsg(t *testing.T) {
	if got := errorText(ErrorMsg{Error: errors.New("x"), Context: "save"}); got != "save: x" {
		t.Errorf("errorText = %q", got)
	}
	if got := errorText(ErrorMsg{Error: errors.New("x")}); got != "x" {
		t.Errorf("errorText = %q", got)
	}
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestTabID_String(t *testing.T) {
	tests := map[TabID]string{
		TabConsole:  "Console",
		TabRequests: "Requests",
		TabHealth:   "Health",
		TabSettings: "Settings",
		TabID(999):  "Unknown",
		TabID(-1):   "Unknown",
	}
	for id, want := range tests {
		if got := id.String(); got != want {
			t.Errorf("TabID(%d).String() = %q, want %q", int(id), got, want)
		}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(km.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
