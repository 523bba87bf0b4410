// Package login is the sign-in screen.
package login

import (
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/router"
	"github.com/abhisek/practest/internal/screen"
	"github.com/abhisek/practest/internal/screens"
	"github.com/abhisek/practest/internal/ui/components"
	"github.com/abhisek/practest/internal/ui/layout"
	"github.com/abhisek/practest/internal/ui/theme"
)

const logo = `╔═╗┬─┐┌─┐┌─┐┌┬┐┌─┐┌─┐┌┬┐
╠═╝├┬┘├─┤│   │ ├┤ └─┐ │
╩  ┴└─┴ ┴└─┘ ┴ └─┘└─┘ ┴ `

// LoginScreen asks for an email and signs the learner in.
type LoginScreen struct {
	env    *screens.Env
	next   func() screen.Screen
	input  components.TextInput
	errMsg string
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates the login screen. next builds the screen shown after a
// successful login.
func New(env *screens.Env, next func() screen.Screen) *LoginScreen {
	return &LoginScreen{
		env:   env,
		next:  next,
		input: components.NewTextInput("you@example.com", false, 120),
	}
}

func (l *LoginScreen) Init() tea.Cmd {
	return l.input.Init()
}

func (l *LoginScreen) Title() string {
	return "Sign in"
}

func (l *LoginScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Sign in"},
	}
}

func (l *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok && kmsg.String() == "enter" {
		return l, l.submit()
	}
	var cmd tea.Cmd
	l.input, cmd = l.input.Update(msg)
	return l, cmd
}

func (l *LoginScreen) submit() tea.Cmd {
	email := strings.TrimSpace(l.input.Value())
	if email == "" {
		l.errMsg = "Enter your email to continue."
		return nil
	}
	u, err := l.env.Auth.Login(email)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidEmail) {
			l.errMsg = "That doesn't look like an email address."
		} else {
			l.errMsg = err.Error()
		}
		return nil
	}
	l.errMsg = ""
	if l.env.Logger != nil {
		l.env.Logger.Info("user signed in", "user", u.ID)
	}
	return router.Replace(l.next())
}

func (l *LoginScreen) View(width, height int) string {
	sections := []string{
		lipgloss.NewStyle().Foreground(theme.Primary).Render(logo),
		"",
		theme.Subtitle.Render("Timed practice tests with instant analysis"),
		"",
		theme.Body.Render("Email"),
		theme.Card.Width(min(width-10, 50)).Render(l.input.View()),
	}
	if l.errMsg != "" {
		sections = append(sections, "", theme.ErrorText.Render(l.errMsg))
	}
	sections = append(sections, "", theme.Hint.Render("Any email works; your progress is tied to it."))
	return components.Center(strings.Join(sections, "\n"), width, height)
}
