package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/ui/styles"
)

var operations = []struct {
	op    models.Operation
	label string
	key   string
}{
	{models.OpUpload, "Upload", "u"},
	{models.OpDownload, "Download", "d"},
	{models.OpPut, "New version", "p"},
	{models.OpDelete, "Delete", "x"},
}

// View renders the console tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())

	if m.form != formNone {
		sections = append(sections, m.renderForm())
	}

	sections = append(sections, m.renderOperations())
	sections = append(sections, m.renderLastFiles())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		MaxHeight(m.height).
		Render(content)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("File Console")
	target := "no target"
	if m.services != nil {
		target = m.services.Files().Target().BaseURL
	}
	subtitle := styles.HelpStyle.Render("Target: " + target)

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 100)
}

// renderForm renders the open operation form.
func (m *Model) renderForm() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render(m.form.title()))

	for i, input := range m.inputs {
		label := styles.BlurredStyle.Render(fmt.Sprintf("%-10s", m.labels[i]))
		if i == m.focused {
			label = styles.FocusedStyle.Render(fmt.Sprintf("%-10s", m.labels[i]))
		}
		rows = append(rows, label+" "+input.View())
	}

	rows = append(rows, "")
	if m.confirmDelete {
		prompt := fmt.Sprintf("Delete %s and all its versions? (y/n)", m.value(0))
		rows = append(rows, styles.WarningTextStyle.Render(prompt))
	} else {
		rows = append(rows, styles.HelpStyle.Render("tab next field • enter submit • esc cancel"))
	}

	return styles.FocusedBorderStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderOperations lists each operation with its latest outcome.
func (m *Model) renderOperations() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Operations"))

	for _, o := range operations {
		rows = append(rows, m.renderOperationRow(o.op, o.label, o.key))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderOperationRow(op models.Operation, label, keyHint string) string {
	phase := m.state.Phase(op)
	badge := m.spinner.Badge(phase, 10)

	line := fmt.Sprintf("%s %-12s %s",
		styles.HelpKeyStyle.Render("["+keyHint+"]"),
		label,
		badge,
	)

	res, ok := m.state.Result(op)
	if !ok || phase == models.PhaseInFlight {
		return line
	}

	detail := res.Message
	if res.Status > 0 {
		detail = fmt.Sprintf("HTTP %d  %s", res.Status, detail)
	}
	if res.IdempotencyKey != "" {
		detail += styles.HelpStyle.Render("  key " + shortKey(res.IdempotencyKey))
	}
	return line + "  " + detail
}

func shortKey(k string) string {
	if len(k) <= 8 {
		return k
	}
	return k[:8] + "…"
}

// renderLastFiles shows the remembered upload and download.
func (m *Model) renderLastFiles() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Last upload"))

	if f, ok := m.lastUpload(); ok {
		rows = append(rows, kv("File ID", f.ID))
		if f.Checksum != "" {
			rows = append(rows, kv("Checksum", f.Checksum))
		}
		if f.Version > 0 {
			rows = append(rows, kv("Version", fmt.Sprintf("%d", f.Version)))
		}
		if f.Size > 0 {
			rows = append(rows, kv("Size", humanize.Bytes(uint64(f.Size))))
		}
		if f.Path != "" {
			rows = append(rows, kv("Path", f.Path))
		}
	} else {
		rows = append(rows, styles.HelpStyle.Render("Nothing uploaded this session"))
	}

	rows = append(rows, "", styles.CardTitleStyle.Render("Last download"))
	if d, ok := m.lastDownload(); ok {
		rows = append(rows, kv("Saved to", d.Path))
		rows = append(rows, kv("Size", humanize.Bytes(uint64(max(d.Size, 0)))))
		if d.Version != "" {
			rows = append(rows, kv("Version", d.Version))
		}
		if d.Checksum != "" {
			rows = append(rows, kv("Checksum", d.Checksum))
		}
		rows = append(rows, kv("When", humanize.Time(d.SavedAt)))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Nothing downloaded this session"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func kv(label, value string) string {
	return styles.HelpDescStyle.Render(fmt.Sprintf("%-9s", label)) + " " + strings.TrimSpace(value)
}
