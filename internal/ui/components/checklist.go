package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/practest/internal/ui/theme"
)

// CheckItem is one toggleable entry.
type CheckItem struct {
	Key     string
	Label   string
	Checked bool
}

// Checklist is a multi-select list toggled with space.
type Checklist struct {
	Items  []CheckItem
	Cursor int
}

// Update moves the cursor and toggles the item under it.
func (c Checklist) Update(msg tea.Msg) Checklist {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(c.Items) == 0 {
		return c
	}
	switch kmsg.String() {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Items)-1 {
			c.Cursor++
		}
	case "space", " ", "x":
		items := make([]CheckItem, len(c.Items))
		copy(items, c.Items)
		items[c.Cursor].Checked = !items[c.Cursor].Checked
		c.Items = items
	case "a":
		all := !c.AllChecked()
		items := make([]CheckItem, len(c.Items))
		for i, it := range c.Items {
			it.Checked = all
			items[i] = it
		}
		c.Items = items
	}
	return c
}

// Checked returns the keys of checked items in list order.
func (c Checklist) Checked() []string {
	var out []string
	for _, it := range c.Items {
		if it.Checked {
			out = append(out, it.Key)
		}
	}
	return out
}

// AllChecked reports whether every item is checked.
func (c Checklist) AllChecked() bool {
	for _, it := range c.Items {
		if !it.Checked {
			return false
		}
	}
	return len(c.Items) > 0
}

// View renders the list. The cursor is only shown when focused.
func (c Checklist) View(focused bool) string {
	var b strings.Builder
	for i, it := range c.Items {
		box := "[ ]"
		if it.Checked {
			box = "[x]"
		}
		prefix := "  "
		style := theme.Unselected
		if focused && i == c.Cursor {
			prefix = "▸ "
			style = theme.Selected
		}
		b.WriteString(style.Render(prefix+box+" "+it.Label) + "\n")
	}
	return b.String()
}
