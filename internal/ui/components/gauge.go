package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/filerepo-console/internal/ui/styles"
)

// Gauge renders a labelled ratio bar, such as ledger fill or error rate.
type Gauge struct {
	progress progress.Model
	label    string
	inverted bool
}

// NewGauge creates a gauge. An inverted gauge treats high values as bad.
func NewGauge(label string, width int, inverted bool) Gauge {
	from, to := "#ff6b6b", "#51cf66"
	if inverted {
		from, to = to, from
	}
	p := progress.New(
		progress.WithScaledGradient(from, to),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return Gauge{progress: p, label: label, inverted: inverted}
}

// SetWidth sets the bar width.
func (g *Gauge) SetWidth(width int) {
	g.progress.Width = max(5, width)
}

// View renders the gauge at ratio (0..1) with a right-aligned percentage.
func (g Gauge) View(ratio float64) string {
	ratio = max(0, min(ratio, 1))
	percent := ratio * 100

	style := styles.LatencyFastStyle
	switch {
	case g.inverted && percent >= 25:
		style = styles.LatencyCriticalStyle
	case g.inverted && percent >= 5:
		style = styles.LatencySlowStyle
	}

	labelStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(g.label)
	percentStr := style.Width(6).Align(lipgloss.Right).Render(fmt.Sprintf("%.0f%%", percent))
	return fmt.Sprintf("%s %s %s", labelStr, g.progress.ViewAs(ratio), percentStr)
}
