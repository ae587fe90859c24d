package requests

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/ui/components"
	"github.com/j-veylop/filerepo-console/internal/ui/styles"
)

// View renders the requests tab.
func (m *Model) View() string {
	var sections []string
	sections = append(sections, m.renderHeader())

	if m.detail {
		sections = append(sections, m.renderDetail())
	} else {
		sections = append(sections, m.renderStats())
		if m.source == sourcePersisted {
			sections = append(sections, m.renderMethodLatency(), m.renderHourly())
		}
		sections = append(sections, m.renderTable())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		MaxHeight(m.height).
		Render(content)
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 60)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Requests")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)
	indicator := rangeStyle.Render("[h] " + m.source.String())

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", indicator)
	if m.source == sourcePersisted {
		header = lipgloss.JoinHorizontal(lipgloss.Center, header, " ", rangeStyle.Render("[t] "+m.timeRange.String()))
	}

	var subtitle string
	switch {
	case m.source == sourcePersisted && m.loading:
		subtitle = "Loading audit log..."
	case m.source == sourcePersisted:
		subtitle = fmt.Sprintf("%d persisted requests", len(m.records))
	default:
		capacity := 0
		if m.services != nil {
			capacity = m.services.Ledger().Capacity()
		}
		if capacity > 0 {
			subtitle = fmt.Sprintf("%d of %d requests retained, newest first", len(m.records), capacity)
		} else {
			subtitle = fmt.Sprintf("%d requests, newest first", len(m.records))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, styles.HelpStyle.Render(subtitle), "")
}

// renderStats summarizes outcomes and latency of the live ledger.
func (m *Model) renderStats() string {
	stats := m.state.GetStats()
	width := m.cardWidth()

	counts := fmt.Sprintf("%s total  %s  %s  %s",
		styles.HelpKeyStyle.Render(fmt.Sprintf("%d", stats.Total)),
		styles.OutcomePendingStyle.Render(fmt.Sprintf("%d pending", stats.Pending)),
		styles.OutcomeSuccessStyle.Render(fmt.Sprintf("%d success", stats.Success)),
		styles.OutcomeFailureStyle.Render(fmt.Sprintf("%d failure", stats.Failure)),
	)

	latency := fmt.Sprintf("avg %s  p50 %s  p95 %s  max %s",
		renderMs(stats.AvgMs), renderMs(stats.P50Ms), renderMs(stats.P95Ms), renderMs(stats.MaxMs))

	gauge := components.NewGauge("Error rate", max(width-30, 10), true)

	rows := []string{
		styles.CardTitleStyle.Render("Latency"),
		counts,
		latency,
		gauge.View(stats.ErrorRate() / 100),
	}
	if spark := components.RenderLatencySparkline(resolvedDurations(m.state.GetRecords()), width-8); spark != "" {
		rows = append(rows, spark)
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderMs(ms float64) string {
	return styles.GetLatencyStyle(ms).Render(fmt.Sprintf("%.0fms", ms))
}

// resolvedDurations returns terminal record durations, oldest first.
func resolvedDurations(records []models.RequestRecord) []float64 {
	var out []float64
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Outcome.IsTerminal() {
			out = append(out, records[i].DurationMs)
		}
	}
	return out
}

// renderMethodLatency shows the persisted per-method averages.
func (m *Model) renderMethodLatency() string {
	rows := []string{styles.CardTitleStyle.Render("Average latency by method, " + m.timeRange.String())}

	latency := m.state.GetLatency()
	switch {
	case m.historyErr != "":
		rows = append(rows, fmt.Sprintf("%s %s", styles.ErrorTextStyle.Render("Error:"), m.historyErr))
	case len(latency) == 0:
		rows = append(rows, styles.HelpStyle.Render("No persisted requests in this window"))
	default:
		values := make([]float64, len(latency))
		labels := make([]string, len(latency))
		for i, l := range latency {
			values[i] = l.AvgMs
			labels[i] = fmt.Sprintf("%s (%d/%d err)", l.Method, l.Calls, l.Errors)
		}
		rows = append(rows, components.RenderBarChart(values, labels, m.cardWidth()-8))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderHourly plots persisted request volume per hour and names the
// busiest hour of the day.
func (m *Model) renderHourly() string {
	rows := []string{styles.CardTitleStyle.Render("Requests per hour")}

	hourly, patterns := m.state.GetHourly()
	if m.historyErr != "" || len(hourly) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No hourly data available"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	calls := make([]float64, len(hourly))
	for i, h := range hourly {
		calls[i] = float64(h.Calls)
	}
	if len(calls) == 1 {
		calls = append(calls, calls[0])
	}

	caption := fmt.Sprintf("%s .. %s",
		hourly[0].Hour.Format("Jan 2 15:04"),
		hourly[len(hourly)-1].Hour.Format("Jan 2 15:04"),
	)
	chart := components.RenderLineChart(calls, max(m.cardWidth()-16, 30), 6, caption)
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	if hour, n := models.PeakHour(patterns); n > 0 {
		rows = append(rows, "", fmt.Sprintf("  Peak: %s (%d requests)",
			lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).
				Render(fmt.Sprintf("%02d:00-%02d:00 UTC", hour, (hour+1)%24)),
			n,
		))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderTable() string {
	if len(m.records) == 0 {
		msg := "No requests yet. Run an operation from the console tab."
		if m.source == sourcePersisted {
			msg = "The audit log is empty."
		}
		return styles.CardStyle.Width(m.cardWidth()).Render(styles.HelpStyle.Render(msg))
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(m.table.View())
}

// renderDetail shows the selected record as JSON.
func (m *Model) renderDetail() string {
	r, ok := m.selected()
	if !ok {
		m.detail = false
		return ""
	}

	title := fmt.Sprintf("%s %s",
		styles.GetMethodStyle(r.Method).Render(r.Method),
		styles.GetOutcomeStyle(string(r.Outcome)).Render(string(r.Outcome)),
	)
	m.viewport.SetContent(strings.TrimRight(recordJSON(r), "\n"))

	return styles.FocusedBorderStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			styles.CardTitleStyle.Render("Request "+r.ID),
			title,
			"",
			m.viewport.View(),
		),
	)
}
