// Package health provides the remote service health tab: the polled health
// state, the request counter series, readiness and drain mode.
package health

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/filerepo-console/internal/app"
	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/services"
	"github.com/j-veylop/filerepo-console/internal/ui/components"
)

// chartMode selects how the counter series is drawn.
type chartMode int

const (
	chartCounter chartMode = iota
	chartRate
)

// keyMap defines the key bindings specific to the health tab.
type keyMap struct {
	Readiness key.Binding
	Drain     key.Binding
	Chart     key.Binding
	Restart   key.Binding
	Up        key.Binding
	Down      key.Binding
}

// defaultKeyMap returns the default key bindings for the health tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Readiness: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "check readiness"),
		),
		Drain: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "toggle drain"),
		),
		Chart: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "counter/rate"),
		),
		Restart: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "restart polling"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the health tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	spinner  components.PhaseSpinner
	keys     keyMap
	viewport viewport.Model
	width    int
	height   int

	chart        chartMode
	draining     bool
	pendingDrain bool
	matched      bool
}

// New creates a new health model.
func New(state *app.State, svc *services.Manager) *Model {
	m := &Model{
		state:    state,
		services: svc,
		spinner:  components.NewPhaseSpinner(),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		matched:  true,
	}
	if res, ok := state.Result(models.OpReadiness); ok && res.Readiness != nil {
		m.draining = res.Readiness.Draining
	}
	return m
}

// Init initializes the health tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages for the health tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	case app.SeriesChangedMsg:
		m.matched = msg.Matched

	case app.PreferencesAppliedMsg:
		m.matched = true

	case app.OperationResultMsg:
		m.applyResult(msg.Result)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// applyResult tracks drain mode from readiness and drain outcomes.
func (m *Model) applyResult(res models.OperationResult) {
	switch res.Op {
	case models.OpReadiness:
		if res.Readiness != nil {
			m.draining = res.Readiness.Draining
		}
	case models.OpDrain:
		if res.Succeeded() {
			m.draining = m.pendingDrain
		}
	}
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Readiness):
		return func() tea.Msg { return app.ReadinessMsg{} }

	case key.Matches(msg, m.keys.Drain):
		m.pendingDrain = !m.draining
		draining := m.pendingDrain
		return func() tea.Msg { return app.DrainMsg{Draining: draining} }

	case key.Matches(msg, m.keys.Chart):
		if m.chart == chartCounter {
			m.chart = chartRate
		} else {
			m.chart = chartCounter
		}
		return nil

	case key.Matches(msg, m.keys.Restart):
		return m.restartCmd()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// restartCmd cancels the running poll cycle and starts a fresh one.
func (m *Model) restartCmd() tea.Cmd {
	if m.services == nil {
		return nil
	}
	p := m.services.Poller()
	return func() tea.Msg {
		p.Restart()
		return app.AddNotificationMsg{
			Type:     app.NotificationInfo,
			Message:  "Polling restarted",
			Duration: app.QuickNotificationDuration,
		}
	}
}

// SetSize sets the available size for the health tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Readiness, m.keys.Drain, m.keys.Chart, m.keys.Restart}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Readiness, m.keys.Drain},
		{m.keys.Chart, m.keys.Restart},
		{m.keys.Up, m.keys.Down},
	}
}
