// Package subjects lists the subjects offered by the backend.
package subjects

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/router"
	"github.com/abhisek/practest/internal/screen"
	"github.com/abhisek/practest/internal/screens"
	"github.com/abhisek/practest/internal/screens/dashboard"
	"github.com/abhisek/practest/internal/screens/history"
	"github.com/abhisek/practest/internal/ui/components"
	"github.com/abhisek/practest/internal/ui/layout"
	"github.com/abhisek/practest/internal/ui/theme"
)

// loadedMsg reports the end of a catalog fetch.
type loadedMsg struct {
	err error
}

// SubjectsScreen is the subject picker shown after login.
type SubjectsScreen struct {
	env      *screens.Env
	onLogout func() screen.Screen
	menu     components.Menu
	loading  bool
}

var _ screen.Screen = (*SubjectsScreen)(nil)
var _ screen.KeyHintProvider = (*SubjectsScreen)(nil)

// New creates the screen. onLogout builds the screen shown after signing out.
func New(env *screens.Env, onLogout func() screen.Screen) *SubjectsScreen {
	s := &SubjectsScreen{env: env, onLogout: onLogout}
	s.rebuild()
	return s
}

func (s *SubjectsScreen) Init() tea.Cmd {
	return s.fetch()
}

func (s *SubjectsScreen) Title() string {
	return "Choose Your Subject"
}

func (s *SubjectsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "R", Description: "Reload"},
		{Key: "H", Description: "History"},
		{Key: "L", Description: "Sign out"},
	}
}

func (s *SubjectsScreen) fetch() tea.Cmd {
	s.loading = true
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		return loadedMsg{err: env.Catalog.Fetch(ctx)}
	}
}

func (s *SubjectsScreen) rebuild() {
	subs := s.env.Catalog.Subjects()
	items := make([]components.MenuItem, 0, len(subs))
	for _, sub := range subs {
		items = append(items, components.MenuItem{
			Label:  sub.Name,
			Detail: sub.Description,
			Action: s.open(sub),
		})
	}
	selected := s.menu.Selected
	s.menu = components.NewMenu(items)
	if selected < len(items) {
		s.menu.Selected = selected
	}
}

func (s *SubjectsScreen) open(sub quiz.Subject) func() tea.Cmd {
	return func() tea.Cmd {
		return router.Push(dashboard.New(s.env, sub))
	}
}

func (s *SubjectsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loading = false
		s.rebuild()
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "r":
			if !s.loading {
				return s, s.fetch()
			}
			return s, nil
		case "h":
			return s, router.Push(history.New(s.env))
		case "l":
			s.env.Auth.Logout()
			if s.onLogout != nil {
				return s, router.Replace(s.onLogout())
			}
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *SubjectsScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Choose Your Subject") + "\n")
	b.WriteString(theme.Subtitle.Render("Select a subject to start practicing questions") + "\n\n")

	switch {
	case s.loading && len(s.menu.Items) == 0:
		b.WriteString(theme.Hint.Render("Loading subjects..."))
	case len(s.menu.Items) == 0 && s.env.Catalog.Err() == nil:
		b.WriteString(theme.Hint.Render("No subjects available."))
	default:
		b.WriteString(s.menu.View())
	}

	if err := s.env.Catalog.Err(); err != nil {
		b.WriteString("\n" + components.Banner("Could not load subjects: "+err.Error()+" (press R to retry)", components.ContentWidth(width)))
	}
	return components.Center(components.Card("", b.String(), components.ContentWidth(width)), width, height)
}
