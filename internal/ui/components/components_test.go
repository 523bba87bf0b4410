package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/practest/internal/quiz"
)

func key(s string) tea.KeyPressMsg {
	switch s {
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

var options = []quiz.Option{{ID: "a", Text: "alpha"}, {ID: "b", Text: "beta"}, {ID: "c", Text: "gamma"}}

func TestChoiceList(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		chosen  string
		cursor  int
		changed bool
	}{
		{"enter picks cursor", []string{"enter"}, "a", 0, true},
		{"move then pick", []string{"down", "down", "space"}, "c", 2, true},
		{"cursor stops at end", []string{"down", "down", "down"}, "", 2, false},
		{"digit picks directly", []string{"2"}, "b", 1, true},
		{"digit out of range", []string{"9"}, "", 0, false},
		{"same choice is not a change", []string{"1", "enter"}, "a", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChoiceList(options, "")
			var changed bool
			for _, k := range tt.keys {
				c, changed = c.Update(key(k))
			}
			assert.Equal(t, tt.chosen, c.Chosen)
			assert.Equal(t, tt.cursor, c.Cursor)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestNewChoiceListPlacesCursorOnChosen(t *testing.T) {
	c := NewChoiceList(options, "c")
	assert.Equal(t, 2, c.Cursor)
	assert.Contains(t, c.View(), "● 3) gamma")
}

func TestReviewView(t *testing.T) {
	v := ReviewView(options, "b", "a")
	lines := strings.Split(strings.TrimSpace(v), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "✓")
	assert.Contains(t, lines[1], "✗")
	assert.NotContains(t, lines[2], "✓")
}

func TestChecklist(t *testing.T) {
	c := Checklist{Items: []CheckItem{{Key: "x1", Label: "One"}, {Key: "x2", Label: "Two", Checked: true}}}

	c = c.Update(key("space"))
	assert.Equal(t, []string{"x1", "x2"}, c.Checked())
	assert.True(t, c.AllChecked())

	c = c.Update(key("a"))
	assert.Empty(t, c.Checked())

	c = c.Update(key("a"))
	assert.True(t, c.AllChecked())

	c = c.Update(key("down"))
	c = c.Update(key("x"))
	assert.Equal(t, []string{"x1"}, c.Checked())
	assert.Contains(t, c.View(true), "▸ [ ] Two")
	assert.NotContains(t, c.View(false), "▸")
}

func TestEmptyChecklistIsNotAllChecked(t *testing.T) {
	assert.False(t, Checklist{}.AllChecked())
}

func TestSparkline(t *testing.T) {
	assert.Empty(t, Sparkline(nil, 10))

	v := Sparkline([]float64{0, 50, 100, 150}, 3)
	assert.Contains(t, v, "▄██")
	assert.NotContains(t, v, "▁")
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar{Label: "Waves", Percent: 120, Suffix: "5/5", Width: 40}
	v := bar.View()
	assert.Contains(t, v, "100%")
	assert.Contains(t, v, "5/5")
	assert.NotContains(t, v, "░")
}
