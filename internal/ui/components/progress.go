package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathverify/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label   string
	Percent float64
	// Caption replaces the percentage shown after the bar when set.
	Caption string
	Width   int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, width int) ProgressBar {
	return ProgressBar{
		Label:   label,
		Percent: percent,
		Width:   width,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	caption := p.Caption
	if caption == "" {
		caption = fmt.Sprintf("%d%%", int(p.Percent*100))
	}
	caption = "  " + caption

	barWidth := p.Width - lipgloss.Width(result) - lipgloss.Width(caption)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	filled = min(max(filled, 0), barWidth)
	empty := barWidth - filled

	result += lipgloss.NewStyle().Foreground(theme.Fill).Render(strings.Repeat("█", filled))
	result += lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", empty))
	result += lipgloss.NewStyle().Foreground(theme.TextDim).Render(caption)

	return result
}
