package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/ui/theme"
)

// ChoiceList lets the learner pick one option of an objective question.
// The cursor moves freely; Chosen is the option id last picked with Enter
// or a number key, "" when nothing is picked.
type ChoiceList struct {
	Options []quiz.Option
	Cursor  int
	Chosen  string
}

// NewChoiceList creates a list with the cursor on chosen, if set.
func NewChoiceList(options []quiz.Option, chosen string) ChoiceList {
	c := ChoiceList{Options: options, Chosen: chosen}
	for i, o := range options {
		if o.ID == chosen {
			c.Cursor = i
		}
	}
	return c
}

// Update handles navigation. It reports whether the choice changed.
func (c ChoiceList) Update(msg tea.Msg) (ChoiceList, bool) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(c.Options) == 0 {
		return c, false
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "enter", "space", " ":
		return c.choose(c.Cursor)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(c.Options) {
				c.Cursor = i
				return c.choose(i)
			}
		}
	}
	return c, false
}

func (c ChoiceList) choose(i int) (ChoiceList, bool) {
	id := c.Options[i].ID
	if c.Chosen == id {
		return c, false
	}
	c.Chosen = id
	return c, true
}

// View renders the options for answering.
func (c ChoiceList) View() string {
	var b strings.Builder
	for i, o := range c.Options {
		prefix := "  "
		if i == c.Cursor {
			prefix = "▸ "
		}
		mark := "○"
		if o.ID == c.Chosen {
			mark = "●"
		}
		line := fmt.Sprintf("%s%s %d) %s", prefix, mark, i+1, o.Text)

		style := theme.Unselected
		switch {
		case o.ID == c.Chosen:
			style = theme.Selected
		case i == c.Cursor:
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
		}
		b.WriteString(style.Render(line) + "\n")
	}
	return b.String()
}

// ReviewView renders the options with the correct one and the chosen one
// marked.
func ReviewView(options []quiz.Option, chosen, correct string) string {
	var b strings.Builder
	for i, o := range options {
		line := fmt.Sprintf("  %d) %s", i+1, o.Text)
		switch {
		case o.ID == correct:
			b.WriteString(theme.Correct.Render(line + "  ✓"))
		case o.ID == chosen:
			b.WriteString(theme.Incorrect.Render(line + "  ✗"))
		default:
			b.WriteString(theme.Subtitle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
