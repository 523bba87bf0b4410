package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/router"
	"github.com/abhisek/practest/internal/screens"
	"github.com/abhisek/practest/internal/screens/screenstest"
)

func sized(t *testing.T, env *screens.Env) AppModel {
	t.Helper()
	m, _ := New(env).Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m.(AppModel)
}

func TestStartsAtLogin(t *testing.T) {
	m := sized(t, &screens.Env{Auth: auth.NewStub()})

	content := m.render()
	assert.Contains(t, content, "Practest")
	assert.Contains(t, content, "Sign in")
	assert.Contains(t, content, "Ctrl+C")
}

func TestShowsSignedInUser(t *testing.T) {
	env := screenstest.Env(t, screenstest.Fake())
	m := sized(t, env)
	assert.Contains(t, m.render(), "ada")
}

func TestTooSmall(t *testing.T) {
	m, _ := New(&screens.Env{Auth: auth.NewStub()}).Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, m.(AppModel).render(), "Terminal too small")
}

func TestCtrlCQuits(t *testing.T) {
	m := sized(t, &screens.Env{Auth: auth.NewStub()})
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestEscapeAtRootStays(t *testing.T) {
	m := sized(t, &screens.Env{Auth: auth.NewStub()})
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.router.Depth())
}

func TestLoginLeadsToSubjects(t *testing.T) {
	env := screenstest.Env(t, screenstest.Fake())
	env.Auth.Logout()
	m := sized(t, env)

	for _, r := range "ada@example.com" {
		next, _ := m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
		m = next.(AppModel)
	}
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	_, ok := msg.(router.ReplaceScreenMsg)
	require.True(t, ok)

	m.Update(msg)
	assert.Equal(t, "Choose Your Subject", m.router.Active().Title())
}
