package components

import (
	"strings"

	"github.com/abhisek/practest/internal/ui/theme"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders percentages (0-100) as a row of block characters,
// keeping only the last width values.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}
	if width > 0 && len(values) > width {
		values = values[len(values)-width:]
	}
	var b strings.Builder
	for _, v := range values {
		i := int(clampPercent(v) / 100 * float64(len(sparkLevels)-1))
		b.WriteRune(sparkLevels[i])
	}
	return theme.Heading.Render(b.String())
}
