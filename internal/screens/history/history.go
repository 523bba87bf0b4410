// Package history lists the signed-in learner's past attempts kept in the
// local database.
package history

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practest/internal/screen"
	"github.com/abhisek/practest/internal/screens"
	"github.com/abhisek/practest/internal/store"
	"github.com/abhisek/practest/internal/ui/components"
	"github.com/abhisek/practest/internal/ui/layout"
	"github.com/abhisek/practest/internal/ui/theme"
)

// Limit is the number of attempts shown.
const Limit = 50

type historyLoadedMsg struct {
	Attempts []store.AttemptRecord
	Err      error
}

// HistoryScreen displays past attempts.
type HistoryScreen struct {
	env      *screens.Env
	attempts []store.AttemptRecord
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(env *screens.Env) *HistoryScreen {
	return &HistoryScreen{
		env:      env,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	env := s.env
	return func() tea.Msg {
		if env.History == nil {
			return historyLoadedMsg{}
		}
		u, ok := env.Auth.CurrentUser()
		if !ok {
			return historyLoadedMsg{}
		}
		ctx, cancel := env.Context()
		defer cancel()
		recs, err := env.History.Recent(ctx, u.ID, Limit)
		return historyLoadedMsg{Attempts: recs, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.attempts = msg.Attempts
		}
		s.loaded = true
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.attempts)-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return components.Center(components.Banner("Could not load history: "+s.errMsg, components.ContentWidth(width)), width, height)
	case !s.loaded:
		return components.Center(theme.Hint.Render("Loading history..."), width, height)
	case len(s.attempts) == 0:
		return components.Center(theme.Hint.Render("No attempts yet. Take a test!"), width, height)
	}

	var b strings.Builder
	for i, a := range s.attempts {
		score := theme.ScoreStyle(a.Score).Render(fmt.Sprintf("%3.0f%%", a.Score))
		line := fmt.Sprintf("%s  %-12s  %s  %d/%d correct",
			a.CompletedAt.Local().Format("Jan 02, 2006 15:04"), a.Subject, score, a.Correct, a.Total)
		if a.CommitError != "" {
			line += "  " + theme.Incorrect.Render("not saved")
		}

		prefix := "  "
		if i == s.selected {
			prefix = theme.Selected.Render("▸ ")
		}
		b.WriteString(prefix + line + "\n")

		if s.expanded[i] {
			detail := fmt.Sprintf("Time %s of %s", layout.FormatClock(a.TimeTaken), layout.FormatClock(a.Duration))
			if a.CommitError != "" {
				detail += "\nError: " + a.CommitError
			}
			b.WriteString(lipgloss.NewStyle().PaddingLeft(4).Foreground(theme.TextDim).Render(detail) + "\n")
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(
		components.Card("Recent attempts", strings.TrimRight(b.String(), "\n"), components.ContentWidth(width)))
}
