package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/ui/styles"
)

// PhaseSpinner renders operation phases, animating the ones still on the
// wire.
type PhaseSpinner struct {
	spinner spinner.Model
}

// NewPhaseSpinner creates a phase spinner.
func NewPhaseSpinner() PhaseSpinner {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return PhaseSpinner{spinner: s}
}

// Init starts the animation.
func (p PhaseSpinner) Init() tea.Cmd {
	return p.spinner.Tick
}

// Update advances the animation on tick messages.
func (p PhaseSpinner) Update(msg tea.Msg) (PhaseSpinner, tea.Cmd) {
	var cmd tea.Cmd
	p.spinner, cmd = p.spinner.Update(msg)
	return p, cmd
}

// Badge renders phase padded to width, prefixed with the spinner frame
// while the operation is in flight.
func (p PhaseSpinner) Badge(phase models.Phase, width int) string {
	text := string(phase)
	if width > 0 {
		text = fmt.Sprintf("%-*s", width, text)
	}
	badge := styles.GetPhaseStyle(string(phase)).Render(text)
	if phase == models.PhaseInFlight {
		return p.spinner.View() + " " + badge
	}
	return badge
}
