package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practest/internal/ui/theme"
)

// ContentWidth returns the inner width used for cards in a frame.
func ContentWidth(frameWidth int) int {
	return min(max(frameWidth-6, 20), 76)
}

// Card wraps content in a rounded-border box with an optional title.
func Card(title, content string, width int) string {
	if title != "" {
		content = theme.Heading.Render(title) + "\n" + content
	}
	return theme.Card.
		Width(width).
		Render(content)
}

// Center places content in the middle of the given area.
func Center(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// Banner renders an error or notice line spanning width.
func Banner(msg string, width int) string {
	return theme.ErrorText.Width(width).Render("! " + msg)
}
