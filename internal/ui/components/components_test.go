package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/j-veylop/filerepo-console/internal/models"
)

func TestPhaseSpinner_Badge(t *testing.T) {
	s := NewPhaseSpinner()

	if s.Init() == nil {
		t.Error("Init should return the tick command")
	}
	if _, cmd := s.Update(spinner.TickMsg{}); cmd == nil {
		t.Error("Update should schedule the next tick")
	}

	idle := s.Badge(models.PhaseIdle, 10)
	if !strings.Contains(idle, "idle") {
		t.Errorf("Badge(idle) = %q", idle)
	}
	if strings.Contains(idle, s.spinner.View()) {
		t.Error("idle badge should not animate")
	}

	busy := s.Badge(models.PhaseInFlight, 0)
	if !strings.HasPrefix(busy, s.spinner.View()) || !strings.Contains(busy, "in-flight") {
		t.Errorf("Badge(in-flight) = %q", busy)
	}
}

func TestRenderLineChart(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	s := RenderLineChart(data, 20, 5, "Test")
	if s == "" {
		t.Error("RenderLineChart returned empty")
	}
}

func TestRenderSeriesChart(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)
	samples := []models.MetricSample{
		models.NewMetricSample(1, at),
		models.NewMetricSample(4, at.Add(5*time.Second)),
	}

	s := RenderSeriesChart(samples, 30, 5, "requests")
	if !strings.Contains(s, "09:30:00 .. 09:30:05") {
		t.Errorf("caption missing time span:\n%s", s)
	}
	if !strings.Contains(s, "(2 points)") {
		t.Error("caption missing point count")
	}

	if s := RenderSeriesChart(samples[:1], 30, 5, "one"); s == "" {
		t.Error("single sample should still render")
	}
	if s := RenderSeriesChart(nil, 30, 5, "none"); !strings.Contains(s, "Waiting") {
		t.Errorf("empty series = %q", s)
	}
}

func TestRenderCounterAndRate(t *testing.T) {
	if s := RenderCounterAndRate([]float64{1}, 20, 5, "x"); !strings.Contains(s, "Not enough") {
		t.Errorf("single point = %q", s)
	}
	if s := RenderCounterAndRate([]float64{1, 3, 6}, 20, 5, "rate"); s == "" {
		t.Error("RenderCounterAndRate returned empty")
	}
}

func TestDeltas(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{name: "Empty", in: nil, want: []float64{}},
		{name: "Monotonic", in: []float64{10, 12, 12, 20}, want: []float64{0, 2, 0, 8}},
		{name: "Reset", in: []float64{50, 60, 3, 5}, want: []float64{0, 10, 3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deltas(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Deltas()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRenderBarChart(t *testing.T) {
	values := []float64{10, 20}
	labels := []string{"GET", "POST"}
	s := RenderBarChart(values, labels, 20)
	if !strings.Contains(s, "POST") || !strings.Contains(s, "20.0") {
		t.Errorf("RenderBarChart() = %q", s)
	}
	if RenderBarChart(nil, nil, 20) != "" {
		t.Error("empty input should render nothing")
	}
}

func TestRenderSparkline(t *testing.T) {
	data := []float64{0, 7, 7}
	s := RenderSparkline(data, 10)
	if s != "▁██" {
		t.Errorf("RenderSparkline() = %q, want %q", s, "▁██")
	}
	if RenderSparkline(nil, 10) != "" {
		t.Error("empty input should render nothing")
	}
}

func TestRenderSparkline_Downsamples(t *testing.T) {
	data := make([]float64, 100)
	s := RenderSparkline(data, 10)
	if n := len([]rune(s)); n != 10 {
		t.Errorf("sparkline width = %d, want 10", n)
	}
}

func TestRenderLatencySparkline(t *testing.T) {
	data := []float64{50, 500, 1500}
	s := RenderLatencySparkline(data, 10)
	if s == "" {
		t.Error("RenderLatencySparkline returned empty")
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{
		{Label: "counter", Color: ChartCounterColor},
		{Label: "rate", Color: ChartRateColor},
	}
	s := RenderLegend(items)
	if !strings.Contains(s, "counter") || !strings.Contains(s, "rate") {
		t.Errorf("RenderLegend() = %q", s)
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("errors", 20, true)
	g.SetWidth(10)

	tests := []struct {
		ratio float64
		want  string
	}{
		{ratio: 0, want: "0%"},
		{ratio: 0.5, want: "50%"},
		{ratio: 2, want: "100%"},
		{ratio: -1, want: "0%"},
	}
	for _, tt := range tests {
		if s := g.View(tt.ratio); !strings.Contains(s, tt.want) || !strings.Contains(s, "errors") {
			t.Errorf("View(%v) = %q, want it to contain %q", tt.ratio, s, tt.want)
		}
	}
}


