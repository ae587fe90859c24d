package health

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/ui/components"
	"github.com/j-veylop/filerepo-console/internal/ui/styles"
)

// View renders the health tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderHealth(),
		m.renderSeries(),
		m.renderReadiness(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 50)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Service Health")

	subtitle := "no target"
	if m.services != nil {
		subtitle = fmt.Sprintf("%s  polled every %s",
			m.services.Files().Target().BaseURL,
			m.services.Config().PollInterval,
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

func healthStyle(h models.HealthState) lipgloss.Style {
	switch {
	case !h.Known():
		return styles.HelpStyle
	case h.Healthy():
		return styles.SuccessTextStyle
	default:
		return styles.ErrorTextStyle
	}
}

// renderHealth shows the tri-state health and the last probe message.
func (m *Model) renderHealth() string {
	h := m.state.GetHealth()

	badge := healthStyle(h).Bold(true).Render("● " + h.Label())
	rows := []string{
		styles.CardTitleStyle.Render("Health"),
		badge,
	}

	if h.Known() {
		if msg := strings.TrimSpace(h.Message); msg != "" {
			rows = append(rows, msg)
		}
		rows = append(rows, styles.HelpStyle.Render("checked "+humanize.Time(h.CheckedAt)))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Waiting for the first probe"))
	}

	return styles.HealthCardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderSeries plots the polled request counter.
func (m *Model) renderSeries() string {
	series := m.state.GetSeries()
	chartWidth := max(m.cardWidth()-16, 30)
	chartHeight := 8

	rows := []string{styles.CardTitleStyle.Render("Requests total")}

	if len(series) > 0 {
		last := series[len(series)-1]
		rows = append(rows, fmt.Sprintf("%s at %s",
			styles.HelpKeyStyle.Render(humanize.Commaf(last.Value)),
			last.TimeLabel,
		))
	}
	if !m.matched {
		rows = append(rows, styles.WarningTextStyle.Render("Counter not found in the last scrape, sampled as 0"))
	}
	rows = append(rows, "")

	var chart string
	if m.chart == chartRate {
		values := make([]float64, len(series))
		for i, s := range series {
			values[i] = s.Value
		}
		chart = components.RenderCounterAndRate(values, chartWidth, chartHeight, "counter and increase per sample")
		if len(values) >= 2 {
			chart += "\n\n" + components.RenderLegend([]components.LegendItem{
				{Label: "counter", Color: components.ChartCounterColor},
				{Label: "increase", Color: components.ChartRateColor},
			})
		}
	} else {
		chart = components.RenderSeriesChart(series, chartWidth, chartHeight, "requests_total")
		if len(series) >= 2 {
			values := make([]float64, len(series))
			for i, s := range series {
				values[i] = s.Value
			}
			chart += "\n\n" + styles.HelpStyle.Render("increase per sample ") +
				components.RenderSparkline(components.Deltas(values), chartWidth-20)
		}
	}

	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderReadiness shows the last readiness check and drain state.
func (m *Model) renderReadiness() string {
	rows := []string{styles.CardTitleStyle.Render("Readiness")}

	phase := m.state.Phase(models.OpReadiness)
	rows = append(rows, m.spinner.Badge(phase, 0))

	if res, ok := m.state.Result(models.OpReadiness); ok && phase != models.PhaseInFlight {
		if r := res.Readiness; r != nil {
			rows = append(rows,
				kv("Status", r.Status),
				kv("Database", r.DB),
				kv("Storage", r.Storage),
				kv("App", r.App),
			)
		} else if res.Message != "" {
			rows = append(rows, res.Message)
		}
	}

	drain := styles.SuccessTextStyle.Render("accepting traffic")
	if m.draining {
		drain = styles.WarningTextStyle.Render("draining")
	}
	rows = append(rows, "", kv("Drain", drain))

	if res, ok := m.state.Result(models.OpDrain); ok && !res.Succeeded() {
		rows = append(rows, styles.ErrorTextStyle.Render(res.Message))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func kv(label, value string) string {
	if value == "" {
		value = "-"
	}
	return styles.HelpDescStyle.Render(fmt.Sprintf("%-9s", label)) + " " + value
}
