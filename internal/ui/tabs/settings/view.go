package settings

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/filerepo-console/internal/config"
	"github.com/j-veylop/filerepo-console/internal/ui/styles"
	"github.com/j-veylop/filerepo-console/internal/version"
)

// View renders the settings tab.
func (m *Model) View() string {
	var sections []string
	sections = append(sections, m.renderTitle())

	if m.editing {
		sections = append(sections, m.renderForm())
	} else {
		sections = append(sections, m.renderPreferences())
	}
	sections = append(sections, m.renderEnvironment(), m.renderAbout())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Settings")
	subtitle := styles.HelpStyle.Render("Preferences, environment and build information")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)
	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func secret(v string) string {
	if v == "" {
		return styles.HelpStyle.Render("not set")
	}
	return "set (" + fmt.Sprint(len(v)) + " chars)"
}

func orDefault(v, def string) string {
	if v == "" {
		return styles.HelpStyle.Render(def)
	}
	return v
}

func onOff(b bool) string {
	if b {
		return styles.SuccessTextStyle.Render("on")
	}
	return styles.WarningTextStyle.Render("off")
}

// renderPreferences shows the stored preferences.
func (m *Model) renderPreferences() string {
	p := m.state.GetPreferences()

	defaultURL, defaultDir := "environment default", "environment default"
	if m.services != nil {
		defaultURL = m.services.Config().BaseURL
		defaultDir = m.services.Config().DownloadDir
	}

	rows := []string{
		styles.CardTitleStyle.Render("Preferences"),
		renderRow(fieldLabels[fieldBaseURL], orDefault(p.BaseURL, defaultURL)),
		renderRow(fieldLabels[fieldAPIKey], secret(p.APIKey)),
		renderRow(fieldLabels[fieldAdminKey], secret(p.AdminKey)),
		renderRow(fieldLabels[fieldDownloadDir], orDefault(p.DownloadDir, defaultDir)),
		renderRow(fieldLabels[fieldAutoIdempotency], onOff(p.AutoIdempotency)),
		"",
		styles.HelpStyle.Render("Press 'e' to edit, 'c' to copy the preferences path"),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderForm renders the preferences editor.
func (m *Model) renderForm() string {
	rows := []string{styles.CardTitleStyle.Render("Edit preferences")}

	for i := 0; i < fieldCount; i++ {
		label := styles.BlurredStyle.Render(fmt.Sprintf("%-17s", fieldLabels[i]))
		if i == m.focused {
			label = styles.FocusedStyle.Render(fmt.Sprintf("%-17s", fieldLabels[i]))
		}

		var value string
		if i == fieldAutoIdempotency {
			box := "[ ]"
			if m.autoKeys {
				box = "[x]"
			}
			value = box + " " + styles.HelpStyle.Render("send Idempotency-Key on uploads")
		} else {
			value = m.inputs[i].View()
		}
		rows = append(rows, label+" "+value)
	}

	rows = append(rows, "")
	if m.formErr != "" {
		rows = append(rows, styles.ErrorTextStyle.Render(m.formErr))
	}
	rows = append(rows, styles.HelpStyle.Render("tab next field • space toggle • enter/ctrl+s save • esc cancel"))

	return styles.FocusedBorderStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func pathOrDisabled(p string) string {
	if p == "" || p == config.DisabledValue {
		return styles.HelpStyle.Render("disabled")
	}
	return p
}

// renderEnvironment shows configuration that comes from the environment.
func (m *Model) renderEnvironment() string {
	rows := []string{styles.CardTitleStyle.Render("Environment")}

	if m.services == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	} else {
		cfg := m.services.Config()
		telemetry := m.services.TelemetryAddr()
		if telemetry != "" {
			telemetry = "http://" + telemetry + "/metrics"
		}
		rows = append(rows,
			renderRow("Preferences", m.services.Preferences().Path()),
			renderRow("Audit log", pathOrDisabled(cfg.DatabasePath)),
			renderRow("Log dir", pathOrDisabled(cfg.LogDir)),
			renderRow("Log level", cfg.LogLevel),
			renderRow("Telemetry", pathOrDisabled(telemetry)),
			renderRow("Poll interval", cfg.PollInterval.String()),
			renderRow("Request timeout", cfg.RequestTimeout.String()),
			renderRow("Ledger capacity", fmt.Sprint(m.services.Ledger().Capacity())),
			renderRow("Desktop alerts", onOff(cfg.Notifications)),
		)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderAbout renders build information.
func (m *Model) renderAbout() string {
	rows := []string{
		styles.CardTitleStyle.Render("About " + version.Name),
		renderRow("Version", version.GetVersion()),
		renderRow("Commit", version.GetCommit()),
		renderRow("Build date", version.GetDate()),
		renderRow("Go version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
