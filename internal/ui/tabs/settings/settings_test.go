package settings

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/filerepo-console/internal/app"
	"github.com/j-veylop/filerepo-console/internal/config"
	"github.com/j-veylop/filerepo-console/internal/services"
	"github.com/j-veylop/filerepo-console/internal/services/preferences"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func newState() *app.State {
	state := app.NewState()
	prefs := preferences.Defaults()
	prefs.BaseURL = "http://files:8000"
	prefs.APIKey = "secret"
	state.SetPreferences(prefs)
	return state
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init should return nil")
	}
	if m.CapturingInput() {
		t.Error("not editing initially")
	}
}

func TestModel_View(t *testing.T) {
	m := New(newState(), nil)
	m.SetSize(100, 60)
	view := m.View()

	for _, want := range []string{"Settings", "http://files:8000", "set (6 chars)", "not set", "Configuration not loaded", "Go version"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "secret") {
		t.Error("keys must not be shown")
	}
}

func TestModel_EditAndSave(t *testing.T) {
	m := New(newState(), nil)

	m.Update(runes("e"))
	if !m.CapturingInput() {
		t.Fatal("e should start editing")
	}
	if got := m.inputs[fieldBaseURL].Value(); got != "http://files:8000" {
		t.Errorf("base url prefill = %q", got)
	}
	if !m.autoKeys {
		t.Error("auto idempotency prefill should follow preferences")
	}

	m.inputs[fieldBaseURL].SetValue("https://files.example.com/ ")
	press(m, tea.KeyTab)
	press(m, tea.KeyTab)
	m.Update(runes("adm"))
	if m.focused != fieldAdminKey {
		t.Fatalf("focused = %d, want admin key", m.focused)
	}

	press(m, tea.KeyEnter)
	press(m, tea.KeyEnter)
	if m.focused != fieldAutoIdempotency {
		t.Fatalf("focused = %d, want toggle", m.focused)
	}
	press(m, tea.KeySpace)
	if m.autoKeys {
		t.Error("space should toggle auto idempotency")
	}

	cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("enter on the toggle should save")
	}
	msg, ok := cmd().(app.SavePreferencesMsg)
	if !ok {
		t.Fatalf("expected SavePreferencesMsg, got %T", cmd())
	}
	p := msg.Prefs
	if p.BaseURL != "https://files.example.com" {
		t.Errorf("BaseURL = %q, want trimmed", p.BaseURL)
	}
	if p.APIKey != "secret" || p.AdminKey != "adm" || p.AutoIdempotency {
		t.Errorf("prefs = %+v", p)
	}
	if p.Version != preferences.Defaults().Version {
		t.Error("untouched fields should be kept")
	}
	if m.CapturingInput() {
		t.Error("save should close the form")
	}
}

func TestModel_InvalidBaseURL(t *testing.T) {
	m := New(newState(), nil)
	m.SetSize(100, 60)
	m.Update(runes("e"))
	m.inputs[fieldBaseURL].SetValue("files:8000")

	m.focused = fieldDownloadDir
	m.updateFocus()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatal("invalid URL should not be saved")
	}
	if !m.CapturingInput() || m.focused != fieldBaseURL {
		t.Error("form should stay open on the base url field")
	}
	if !strings.Contains(m.View(), "must be an http or https URL") {
		t.Error("validation error should be visible")
	}
}

func TestModel_Cancel(t *testing.T) {
	state := newState()
	m := New(state, nil)
	m.Update(runes("e"))
	m.inputs[fieldBaseURL].SetValue("http://other")

	press(m, tea.KeyEsc)
	if m.CapturingInput() {
		t.Error("esc should stop editing")
	}
	if state.GetPreferences().BaseURL != "http://files:8000" {
		t.Error("cancel should not change preferences")
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"", true},
		{"http://localhost:8000", true},
		{"https://files.example.com/api", true},
		{"ftp://files", false},
		{"localhost:8000", false},
		{"http://", false},
	}
	for _, tt := range tests {
		if got := validateBaseURL(tt.in) == ""; got != tt.valid {
			t.Errorf("validateBaseURL(%q) valid = %v, want %v", tt.in, got, tt.valid)
		}
	}
}

func TestModel_WithManager(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.Config{
		BaseURL:         "http://127.0.0.1:1",
		DownloadDir:     tmpDir,
		DatabasePath:    config.DisabledValue,
		PreferencesPath: filepath.Join(tmpDir, "preferences.json"),
		PollInterval:    time.Hour,
		RequestTimeout:  time.Second,
	}
	mgr, err := services.NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	m := New(app.NewState(), mgr)
	m.SetSize(120, 80)

	_, cmd := m.Update(runes("c"))
	msg, ok := cmd().(app.CopyToClipboardMsg)
	if !ok || msg.Text != cfg.PreferencesPath {
		t.Errorf("copy = %+v", cmd())
	}

	view := m.View()
	for _, want := range []string{"Environment", "preferences.json", "disabled", "1h0m0s", "250"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)
	if len(m.ShortHelp()) != 2 {
		t.Errorf("ShortHelp = %d", len(m.ShortHelp()))
	}
	m.Update(runes("e"))
	if len(m.ShortHelp()) != 4 {
		t.Errorf("editing ShortHelp = %d", len(m.ShortHelp()))
	}
	if len(m.FullHelp()) != 3 {
		t.Errorf("FullHelp = %d", len(m.FullHelp()))
	}
}
