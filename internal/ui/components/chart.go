// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/ui/styles"
)

// ChartColors defines colors for chart elements.
var (
	ChartCounterColor = lipgloss.Color("#4285f4")
	ChartRateColor    = lipgloss.Color("#cc785c")
	ChartPrimaryColor = lipgloss.Color("#7D56F4")
)

// sparkChars are the sparkline levels, low to high.
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)

	return graph
}

// RenderSeriesChart plots polled samples with their time span as caption.
func RenderSeriesChart(samples []models.MetricSample, width, height int, title string) string {
	if len(samples) == 0 {
		return styles.HelpStyle.Render("Waiting for the first metrics sample")
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}

	caption := fmt.Sprintf("%s  %s .. %s  (%d points)",
		title, samples[0].TimeLabel, samples[len(samples)-1].TimeLabel, len(samples))

	// asciigraph needs two points to draw a line.
	if len(values) == 1 {
		values = append(values, values[0])
	}
	return RenderLineChart(values, width, height, caption)
}

// RenderCounterAndRate plots a cumulative counter together with its
// per-sample increase.
func RenderCounterAndRate(counter []float64, width, height int, caption string) string {
	if len(counter) < 2 {
		return styles.HelpStyle.Render("Not enough samples for a rate")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.PlotMany([][]float64{counter, Deltas(counter)},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.Red,
		),
	)
}

// Deltas returns the increase between consecutive counter values. The first
// point is zero. A drop is a counter reset and counts as the new value.
func Deltas(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d < 0 {
			d = values[i]
		}
		out[i] = d
	}
	return out
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	// Find max value for scaling
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Find max label length
	maxLabelLen := 0
	for _, l := range labels {
		if len(l) > maxLabelLen {
			maxLabelLen = len(l)
		}
	}

	barWidth := width - maxLabelLen - 10 // Leave room for label and value
	if barWidth < 10 {
		barWidth = 10
	}

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		paddedLabel := fmt.Sprintf("%*s", maxLabelLen, label)

		barLen := int((v / maxVal) * float64(barWidth))
		if barLen < 0 {
			barLen = 0
		}

		bar := strings.Repeat("█", barLen)
		valueStr := fmt.Sprintf(" %.1f", v)

		lines = append(lines, paddedLabel+" │"+bar+valueStr)
	}

	return strings.Join(lines, "\n")
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	var result strings.Builder
	for _, idx := range sparkLevels(values, width) {
		result.WriteRune(sparkChars[idx.level])
	}
	return result.String()
}

// RenderLatencySparkline creates a sparkline of durations in milliseconds,
// each point colored by its latency band.
func RenderLatencySparkline(durations []float64, width int) string {
	var result strings.Builder
	for _, idx := range sparkLevels(durations, width) {
		style := styles.GetLatencyStyle(idx.value)
		result.WriteString(style.Render(string(sparkChars[idx.level])))
	}
	return result.String()
}

type sparkPoint struct {
	value float64
	level int
}

// sparkLevels samples values down to width points and maps each to a level.
func sparkLevels(values []float64, width int) []sparkPoint {
	if len(values) == 0 || width <= 0 {
		return nil
	}

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	step := float64(len(values)) / float64(width)
	if step < 1 {
		step = 1
	}

	var out []sparkPoint
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		level := int((val / maxVal) * float64(len(sparkChars)-1))
		level = max(0, min(level, len(sparkChars)-1))
		out = append(out, sparkPoint{value: val, level: level})
	}
	return out
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
