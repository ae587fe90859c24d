// Package console provides the file operations tab: upload, versioned
// download, new version and delete.
package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/filerepo-console/internal/app"
	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/services"
	"github.com/j-veylop/filerepo-console/internal/services/files"
	"github.com/j-veylop/filerepo-console/internal/ui/components"
)

// formKind identifies which operation form is open.
type formKind int

const (
	formNone formKind = iota
	formUpload
	formDownload
	formPut
	formDelete
)

func (f formKind) title() string {
	switch f {
	case formUpload:
		return "Upload new file"
	case formDownload:
		return "Download file"
	case formPut:
		return "Upload new version"
	case formDelete:
		return "Delete file"
	default:
		return ""
	}
}

func (f formKind) operation() models.Operation {
	switch f {
	case formUpload:
		return models.OpUpload
	case formDownload:
		return models.OpDownload
	case formPut:
		return models.OpPut
	case formDelete:
		return models.OpDelete
	default:
		return ""
	}
}

// keyMap defines the key bindings specific to the console tab.
type keyMap struct {
	Upload       key.Binding
	Download     key.Binding
	Put          key.Binding
	Delete       key.Binding
	CopyID       key.Binding
	CopyChecksum key.Binding
	NextField    key.Binding
	PrevField    key.Binding
	Submit       key.Binding
	Escape       key.Binding
}

// defaultKeyMap returns the default key bindings for the console tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download"),
		),
		Put: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "new version"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "delete"),
		),
		CopyID: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy file id"),
		),
		CopyChecksum: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "copy checksum"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Model represents the console tab state.
type Model struct {
	state         *app.State
	services      *services.Manager
	spinner       components.PhaseSpinner
	labels        []string
	inputs        []textinput.Model
	keys          keyMap
	width         int
	height        int
	focused       int
	form          formKind
	confirmDelete bool
}

// New creates a new console model. svc may be nil in tests.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		services: svc,
		spinner:  components.NewPhaseSpinner(),
		keys:     defaultKeyMap(),
	}
}

// Init initializes the console tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// CapturingInput reports whether a form or confirmation owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.form != formNone
}

// Update handles messages for the console tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if m.confirmDelete {
		return m.updateDeleteConfirm(msg)
	}
	if m.form != formNone {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Upload):
		return m.openForm(formUpload)
	case key.Matches(msg, m.keys.Download):
		return m.openForm(formDownload)
	case key.Matches(msg, m.keys.Put):
		return m.openForm(formPut)
	case key.Matches(msg, m.keys.Delete):
		return m.openForm(formDelete)
	case key.Matches(msg, m.keys.CopyID):
		if f, ok := m.lastUpload(); ok {
			return func() tea.Msg { return app.CopyToClipboardMsg{Label: "File ID", Text: f.ID} }
		}
		return nothingToCopy()
	case key.Matches(msg, m.keys.CopyChecksum):
		if f, ok := m.lastUpload(); ok && f.Checksum != "" {
			return func() tea.Msg { return app.CopyToClipboardMsg{Label: "Checksum", Text: f.Checksum} }
		}
		return nothingToCopy()
	}
	return nil
}

func nothingToCopy() tea.Cmd {
	return func() tea.Msg {
		return app.AddNotificationMsg{
			Type:     app.NotificationWarning,
			Message:  "No upload yet",
			Duration: app.QuickNotificationDuration,
		}
	}
}

// openForm builds the inputs for kind. File id fields are prefilled with
// the last uploaded identifier.
func (m *Model) openForm(kind formKind) tea.Cmd {
	lastID := ""
	if f, ok := m.lastUpload(); ok {
		lastID = f.ID
	}

	switch kind {
	case formUpload:
		m.labels = []string{"File path", "Directory"}
		m.inputs = []textinput.Model{newInput("/path/to/file", ""), newInput("optional, e.g. reports/2024", "")}
	case formDownload:
		m.labels = []string{"File ID", "Version"}
		m.inputs = []textinput.Model{newInput("file id", lastID), newInput("latest", "")}
	case formPut:
		m.labels = []string{"File ID", "File path"}
		m.inputs = []textinput.Model{newInput("file id", lastID), newInput("/path/to/file", "")}
	case formDelete:
		m.labels = []string{"File ID"}
		m.inputs = []textinput.Model{newInput("file id", lastID)}
	default:
		return nil
	}

	m.form = kind
	m.focused = 0
	m.updateFocus()
	return textinput.Blink
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 1024
	ti.Width = 48
	ti.SetValue(value)
	return ti
}

func (m *Model) closeForm() {
	m.form = formNone
	m.confirmDelete = false
	m.inputs = nil
	m.labels = nil
	m.focused = 0
}

// updateForm handles input while a form is open.
func (m *Model) updateForm(msg tea.Msg) (app.Tab, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Escape):
			m.closeForm()
			return m, nil

		case key.Matches(keyMsg, m.keys.NextField):
			m.focused = (m.focused + 1) % len(m.inputs)
			m.updateFocus()
			return m, textinput.Blink

		case key.Matches(keyMsg, m.keys.PrevField):
			m.focused = (m.focused - 1 + len(m.inputs)) % len(m.inputs)
			m.updateFocus()
			return m, textinput.Blink

		case key.Matches(keyMsg, m.keys.Submit):
			if m.focused < len(m.inputs)-1 {
				m.focused++
				m.updateFocus()
				return m, textinput.Blink
			}
			return m, m.submit()
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

func (m *Model) value(i int) string {
	if i >= len(m.inputs) {
		return ""
	}
	return strings.TrimSpace(m.inputs[i].Value())
}

// submit turns the open form into an operation request. Delete asks for
// confirmation first.
func (m *Model) submit() tea.Cmd {
	var req tea.Msg
	switch m.form {
	case formUpload:
		req = app.UploadMsg{Input: files.UploadInput{FilePath: m.value(0), Dir: m.value(1)}}
	case formDownload:
		req = app.DownloadMsg{Input: files.DownloadInput{FileID: m.value(0), Version: m.value(1)}}
	case formPut:
		req = app.PutVersionMsg{Input: files.PutVersionInput{FileID: m.value(0), FilePath: m.value(1)}}
	case formDelete:
		m.confirmDelete = true
		return nil
	default:
		return nil
	}

	m.closeForm()
	return func() tea.Msg { return req }
}

// updateDeleteConfirm handles the delete confirmation.
func (m *Model) updateDeleteConfirm(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		id := m.value(0)
		m.closeForm()
		return m, func() tea.Msg {
			return app.DeleteMsg{Input: files.DeleteInput{FileID: id}}
		}
	case "n", "N", "esc":
		m.confirmDelete = false
	}
	return m, nil
}

func (m *Model) lastUpload() (models.StoredFile, bool) {
	if m.services == nil {
		return models.StoredFile{}, false
	}
	return m.services.Files().LastUpload()
}

func (m *Model) lastDownload() (models.DownloadedFile, bool) {
	if m.services == nil {
		return models.DownloadedFile{}, false
	}
	return m.services.Files().LastDownload()
}

// SetSize sets the available size for the console tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	for i := range m.inputs {
		m.inputs[i].Width = min(48, max(width-30, 20))
	}
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.form != formNone {
		return []key.Binding{m.keys.NextField, m.keys.Submit, m.keys.Escape}
	}
	return []key.Binding{
		m.keys.Upload,
		m.keys.Download,
		m.keys.Put,
		m.keys.Delete,
		m.keys.CopyID,
		m.keys.CopyChecksum,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Upload, m.keys.Download, m.keys.Put, m.keys.Delete},
		{m.keys.CopyID, m.keys.CopyChecksum},
		{m.keys.NextField, m.keys.PrevField, m.keys.Submit, m.keys.Escape},
	}
}
