// Package requests provides the request ledger tab: the audited calls,
// their latency statistics and the persisted history.
package requests

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/pretty"

	"github.com/j-veylop/filerepo-console/internal/app"
	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/services"
	"github.com/j-veylop/filerepo-console/internal/ui/styles"
)

// source selects which records the table lists.
type source int

const (
	sourceLive source = iota
	sourcePersisted
)

func (s source) String() string {
	if s == sourcePersisted {
		return "Persisted history"
	}
	return "Live ledger"
}

// keyMap defines the key bindings specific to the requests tab.
type keyMap struct {
	Detail  key.Binding
	Back    key.Binding
	History key.Binding
	Range   key.Binding
	Copy    key.Binding
	Up      key.Binding
	Down    key.Binding
}

// defaultKeyMap returns the default key bindings for the requests tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "live/history"),
		),
		Range: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "history range"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy record"),
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

// Model represents the requests tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	table    table.Model
	viewport viewport.Model
	keys     keyMap
	width    int
	height   int

	source     source
	timeRange  models.TimeRange
	records    []models.RequestRecord
	persisted  []models.RequestRecord
	historyErr string
	loading    bool
	detail     bool
}

// New creates a new requests model.
func New(state *app.State, svc *services.Manager) *Model {
	columns := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Method", Width: 7},
		{Title: "Status", Width: 6},
		{Title: "Outcome", Width: 8},
		{Title: "Duration", Width: 9},
		{Title: "Size", Width: 8},
		{Title: "URL", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	m := &Model{
		state:     state,
		services:  svc,
		table:     t,
		viewport:  viewport.New(0, 0),
		keys:      defaultKeyMap(),
		timeRange: models.TimeRange24Hours,
	}
	m.syncRecords()
	return m
}

// Init initializes the requests tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the requests tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.LedgerRefreshedMsg:
		m.syncRecords()

	case app.HistoryLoadedMsg:
		m.loading = false
		if msg.Error != nil {
			m.historyErr = msg.Error.Error()
			m.persisted = nil
		} else {
			m.historyErr = ""
			m.persisted = msg.Records
		}
		m.syncRecords()

	case app.TabSwitchMsg:
		if msg.Tab == app.TabRequests {
			m.syncRecords()
		}

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.detail {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.detail = false
			return nil
		case key.Matches(msg, m.keys.Copy):
			return m.copySelected()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Detail):
		if _, ok := m.selected(); ok {
			m.detail = true
			m.viewport.GotoTop()
		}
		return nil

	case key.Matches(msg, m.keys.History):
		return m.toggleSource()

	case key.Matches(msg, m.keys.Range):
		m.timeRange = m.timeRange.Next()
		if m.source == sourcePersisted {
			m.loading = true
			return m.loadHistory()
		}
		return nil

	case key.Matches(msg, m.keys.Copy):
		return m.copySelected()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

// toggleSource flips between the live ledger and the audit log. Switching
// to the audit log reloads it.
func (m *Model) toggleSource() tea.Cmd {
	if m.source == sourcePersisted {
		m.source = sourceLive
		m.syncRecords()
		return nil
	}

	m.source = sourcePersisted
	m.loading = true
	m.syncRecords()
	return m.loadHistory()
}

func (m *Model) loadHistory() tea.Cmd {
	window := m.timeRange.Window()
	return func() tea.Msg {
		return app.LoadHistoryMsg{
			Limit:  app.DefaultHistoryLimit,
			Window: window,
		}
	}
}

// syncRecords rebuilds the table rows from the active source, keeping the
// cursor in range.
func (m *Model) syncRecords() {
	if m.source == sourcePersisted {
		m.records = m.persisted
	} else {
		m.records = m.state.GetRecords()
	}

	rows := make([]table.Row, len(m.records))
	for i, r := range m.records {
		rows[i] = recordRow(r)
	}
	m.table.SetRows(rows)

	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func recordRow(r models.RequestRecord) table.Row {
	status := "-"
	if r.HasStatus() {
		status = fmt.Sprintf("%d", r.Status)
	}
	duration := "-"
	if r.Outcome.IsTerminal() {
		duration = fmt.Sprintf("%.0fms", r.DurationMs)
	}
	size := "-"
	if r.ByteSize > 0 {
		size = humanize.Bytes(uint64(r.ByteSize))
	}
	return table.Row{
		r.Timestamp.Local().Format(time.TimeOnly),
		r.Method,
		status,
		string(r.Outcome),
		duration,
		size,
		r.URL,
	}
}

// selected returns the record under the cursor.
func (m *Model) selected() (models.RequestRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return models.RequestRecord{}, false
	}
	return m.records[i], true
}

// recordJSON renders a record as indented JSON.
func recordJSON(r models.RequestRecord) string {
	raw, err := json.Marshal(r)
	if err != nil {
		return err.Error()
	}
	return string(pretty.Pretty(raw))
}

func (m *Model) copySelected() tea.Cmd {
	r, ok := m.selected()
	if !ok {
		return func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationWarning,
				Message:  "No request selected",
				Duration: app.QuickNotificationDuration,
			}
		}
	}
	text := recordJSON(r)
	return func() tea.Msg {
		return app.CopyToClipboardMsg{Label: "Request " + r.ID, Text: text}
	}
}

// SetSize sets the available size for the requests tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	// Title, stats card and paddings take roughly 14 lines.
	m.table.SetHeight(max(height-16, 5))
	urlWidth := max(width-70, 20)
	cols := m.table.Columns()
	cols[len(cols)-1].Width = urlWidth
	m.table.SetColumns(cols)

	m.viewport.Width = max(width-10, 20)
	m.viewport.Height = max(height-8, 5)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.detail {
		return []key.Binding{m.keys.Back, m.keys.Copy}
	}
	return []key.Binding{m.keys.Detail, m.keys.History, m.keys.Range, m.keys.Copy}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Detail, m.keys.Back, m.keys.Copy},
		{m.keys.History, m.keys.Range},
		{m.keys.Up, m.keys.Down},
	}
}
