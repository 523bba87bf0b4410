package components

import (
	"github.com/abhisek/practest/internal/ui/theme"
)

// Button renders a labelled action. Focused buttons are highlighted.
func Button(label string, focused bool) string {
	if focused {
		return theme.ButtonActive.Render("▸ " + label)
	}
	return theme.ButtonInactive.Render(label)
}
