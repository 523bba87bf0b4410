package subjects

import (
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practest/internal/router"
	"github.com/abhisek/practest/internal/screen"
	"github.com/abhisek/practest/internal/screens/screenstest"
)

type stubScreen struct{}

func (stubScreen) Init() tea.Cmd                              { return nil }
func (s stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (stubScreen) View(int, int) string                       { return "login" }
func (stubScreen) Title() string                              { return "login" }

func loaded(t *testing.T, s *SubjectsScreen) {
	t.Helper()
	cmd := s.Init()
	require.NotNil(t, cmd)
	s.Update(cmd())
}

func TestListsSubjects(t *testing.T) {
	env := screenstest.Env(t, screenstest.Fake())
	s := New(env, nil)
	loaded(t, s)

	require.Len(t, s.menu.Items, 2)
	v := s.View(100, 30)
	assert.Contains(t, v, "Physics")
	assert.Contains(t, v, "Mechanics and waves")
	assert.Contains(t, v, "Chemistry")
}

func TestEnterOpensDashboard(t *testing.T) {
	env := screenstest.Env(t, screenstest.Fake())
	s := New(env, nil)
	loaded(t, s)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Physics", msg.Screen.Title())
}

func TestFetchErrorShowsBanner(t *testing.T) {
	gw := screenstest.Fake()
	gw.SubjectsErr = errors.New("connection refused")
	env := screenstest.Env(t, gw)
	s := New(env, nil)
	loaded(t, s)

	assert.Contains(t, s.View(100, 30), "connection refused")
}

func TestLogout(t *testing.T) {
	env := screenstest.Env(t, screenstest.Fake())
	s := New(env, func() screen.Screen { return stubScreen{} })

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'l', Text: "l"})
	require.NotNil(t, cmd)
	_, ok := cmd().(router.ReplaceScreenMsg)
	assert.True(t, ok)

	_, signedIn := env.Auth.CurrentUser()
	assert.False(t, signedIn)
}

func TestHistoryKeyOpensHistory(t *testing.T) {
	env := screenstest.Env(t, screenstest.Fake())
	s := New(env, nil)

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'h', Text: "h"})
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "History", msg.Screen.Title())
}
