package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/practest/internal/ui/theme"
)

// ProgressBar displays a labelled horizontal bar for a percentage.
type ProgressBar struct {
	Label      string
	LabelWidth int
	Percent    float64 // 0-100
	Suffix     string
	Width      int
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		label := p.Label
		if p.LabelWidth > 0 {
			label = lipgloss.NewStyle().Width(p.LabelWidth).MaxWidth(p.LabelWidth).Render(label)
		}
		result += theme.Body.Render(label) + "  "
	}

	suffix := fmt.Sprintf("%3.0f%%", clampPercent(p.Percent))
	if p.Suffix != "" {
		suffix += "  " + p.Suffix
	}

	barWidth := max(p.Width-lipgloss.Width(result)-lipgloss.Width(suffix)-2, 4)
	filled := int(float64(barWidth) * clampPercent(p.Percent) / 100)
	empty := barWidth - filled

	result += lipgloss.NewStyle().Foreground(theme.Secondary).Render(strings.Repeat("█", filled))
	result += lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", empty))
	result += "  " + theme.Subtitle.Render(suffix)
	return result
}

func clampPercent(p float64) float64 {
	return min(max(p, 0), 100)
}
