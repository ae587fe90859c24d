// Package settings provides the settings tab: editable preferences plus the
// environment configuration and build information.
package settings

import (
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/filerepo-console/internal/app"
	"github.com/j-veylop/filerepo-console/internal/services"
	"github.com/j-veylop/filerepo-console/internal/services/preferences"
)

// Form fields. fieldAutoIdempotency is a toggle, not a text input.
const (
	fieldBaseURL = iota
	fieldAPIKey
	fieldAdminKey
	fieldDownloadDir
	fieldAutoIdempotency
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Base URL",
	"API key",
	"Admin key",
	"Download dir",
	"Auto idempotency",
}

// keyMap defines the key bindings specific to the settings tab.
type keyMap struct {
	Edit      key.Binding
	Copy      key.Binding
	NextField key.Binding
	PrevField key.Binding
	Toggle    key.Binding
	Save      key.Binding
	Cancel    key.Binding
	Up        key.Binding
	Down      key.Binding
}

// defaultKeyMap returns the default key bindings for the settings tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy path"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the settings tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	keys     keyMap
	viewport viewport.Model
	inputs   []textinput.Model
	width    int
	height   int

	editing  bool
	focused  int
	autoKeys bool
	formErr  string
}

// New creates a new settings model.
func New(state *app.State, svc *services.Manager) *Model {
	inputs := make([]textinput.Model, fieldAutoIdempotency)
	placeholders := []string{"http://localhost:8000", "X-API-Key", "X-Admin-Key", "~/Downloads"}
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 512
		ti.Width = 48
		inputs[i] = ti
	}
	inputs[fieldAPIKey].EchoMode = textinput.EchoPassword
	inputs[fieldAdminKey].EchoMode = textinput.EchoPassword

	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		inputs:   inputs,
	}
}

// Init initializes the settings tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// CapturingInput reports whether the preferences form owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.editing
}

// Update handles messages for the settings tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if m.editing {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Edit):
		return m, m.startEditing()

	case key.Matches(keyMsg, m.keys.Copy):
		if m.services == nil {
			return m, nil
		}
		path := m.services.Preferences().Path()
		return m, func() tea.Msg {
			return app.CopyToClipboardMsg{Label: "Preferences path", Text: path}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(keyMsg)
	return m, cmd
}

// startEditing loads the current preferences into the form.
func (m *Model) startEditing() tea.Cmd {
	p := m.state.GetPreferences()
	m.inputs[fieldBaseURL].SetValue(p.BaseURL)
	m.inputs[fieldAPIKey].SetValue(p.APIKey)
	m.inputs[fieldAdminKey].SetValue(p.AdminKey)
	m.inputs[fieldDownloadDir].SetValue(p.DownloadDir)
	m.autoKeys = p.AutoIdempotency

	m.editing = true
	m.formErr = ""
	m.focused = fieldBaseURL
	m.updateFocus()
	return textinput.Blink
}

func (m *Model) stopEditing() {
	m.editing = false
	m.formErr = ""
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) updateForm(msg tea.Msg) (app.Tab, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Cancel):
			m.stopEditing()
			return m, nil

		case key.Matches(keyMsg, m.keys.Save):
			return m, m.save()

		case key.Matches(keyMsg, m.keys.NextField):
			m.focused = (m.focused + 1) % fieldCount
			m.updateFocus()
			return m, textinput.Blink

		case key.Matches(keyMsg, m.keys.PrevField):
			m.focused = (m.focused - 1 + fieldCount) % fieldCount
			m.updateFocus()
			return m, textinput.Blink

		case keyMsg.String() == "enter":
			if m.focused == fieldAutoIdempotency {
				return m, m.save()
			}
			m.focused++
			m.updateFocus()
			return m, textinput.Blink

		case m.focused == fieldAutoIdempotency && key.Matches(keyMsg, m.keys.Toggle):
			m.autoKeys = !m.autoKeys
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focused < len(m.inputs) {
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	}
	return m, cmd
}

func (m *Model) updateFocus() {
	for i := range m.inputs {
		if i == m.focused {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// formPreferences builds preferences from the form, keeping fields the form
// does not edit.
func (m *Model) formPreferences() preferences.Preferences {
	p := m.state.GetPreferences()
	p.BaseURL = strings.TrimRight(strings.TrimSpace(m.inputs[fieldBaseURL].Value()), "/")
	p.APIKey = strings.TrimSpace(m.inputs[fieldAPIKey].Value())
	p.AdminKey = strings.TrimSpace(m.inputs[fieldAdminKey].Value())
	p.DownloadDir = strings.TrimSpace(m.inputs[fieldDownloadDir].Value())
	p.AutoIdempotency = m.autoKeys
	return p
}

// validateBaseURL accepts an empty value (use the environment default) or
// an absolute http(s) URL.
func validateBaseURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "Base URL must be an http or https URL"
	}
	return ""
}

func (m *Model) save() tea.Cmd {
	p := m.formPreferences()
	if msg := validateBaseURL(p.BaseURL); msg != "" {
		m.formErr = msg
		m.focused = fieldBaseURL
		m.updateFocus()
		return nil
	}

	m.stopEditing()
	return func() tea.Msg { return app.SavePreferencesMsg{Prefs: p} }
}

// SetSize sets the available size for the settings tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	for i := range m.inputs {
		m.inputs[i].Width = min(48, max(width-36, 20))
	}
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.editing {
		return []key.Binding{m.keys.NextField, m.keys.Toggle, m.keys.Save, m.keys.Cancel}
	}
	return []key.Binding{m.keys.Edit, m.keys.Copy}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Edit, m.keys.Copy},
		{m.keys.NextField, m.keys.PrevField, m.keys.Toggle, m.keys.Save, m.keys.Cancel},
		{m.keys.Up, m.keys.Down},
	}
}
