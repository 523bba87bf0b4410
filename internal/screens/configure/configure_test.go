package configure

import (
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/router"
	"github.com/abhisek/practest/internal/screens/screenstest"
)

var (
	enter = tea.KeyPressMsg{Code: tea.KeyEnter}
	tab   = tea.KeyPressMsg{Code: tea.KeyTab}
	space = tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	bksp  = tea.KeyPressMsg{Code: tea.KeyBackspace}
)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func newForm(t *testing.T) *ConfigureScreen {
	t.Helper()
	env := screenstest.Env(t, screenstest.Fake())
	c := New(env, screenstest.Physics)
	if cmd := c.Init(); cmd != nil {
		c.Update(cmd())
	}
	return c
}

func TestDefaults(t *testing.T) {
	c := newForm(t)

	cfg := c.Config()
	assert.Equal(t, "physics", cfg.Subject)
	assert.Empty(t, cfg.Topics)
	assert.Equal(t, 20*60, cfg.Duration)
	assert.Equal(t, 10, cfg.QuestionCount)
	assert.Equal(t, []quiz.Difficulty{quiz.DifficultyEasy, quiz.DifficultyMedium}, cfg.Difficulty)
	assert.Equal(t, []quiz.QuestionType{quiz.TypeObjective, quiz.TypeSubjective}, cfg.QuestionTypes)
	assert.Len(t, c.topics.Items, 2)
}

func TestStartWithoutTopicsFails(t *testing.T) {
	c := newForm(t)

	_, cmd := c.Update(enter)
	assert.Nil(t, cmd)
	assert.Equal(t, "At least one topic is required.", c.errMsg)
}

func TestEditFields(t *testing.T) {
	c := newForm(t)

	c.Update(key('a'))
	c.Update(tab)
	assert.Equal(t, fieldDuration, c.focus)
	c.Update(bksp)
	c.Update(bksp)
	c.Update(key('4'))
	c.Update(key('5'))
	c.Update(key('x'))
	c.Update(tab)
	c.Update(bksp)
	c.Update(bksp)
	c.Update(key('5'))
	c.Update(tab)
	assert.Equal(t, fieldDifficulty, c.focus)
	c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	c.Update(space)

	cfg := c.Config()
	assert.Equal(t, []string{"mechanics", "waves"}, cfg.Topics)
	assert.Equal(t, 45*60, cfg.Duration)
	assert.Equal(t, 5, cfg.QuestionCount)
	assert.Equal(t, []quiz.Difficulty{quiz.DifficultyEasy, quiz.DifficultyMedium, quiz.DifficultyHard}, cfg.Difficulty)
	require.NoError(t, cfg.Validate())
}

func TestFocusWraps(t *testing.T) {
	c := newForm(t)
	c.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	assert.Equal(t, fieldStart, c.focus)
	c.Update(tab)
	assert.Equal(t, fieldTopics, c.focus)
}

func TestStartLaunchesSession(t *testing.T) {
	c := newForm(t)
	c.Update(key('a'))

	_, cmd := c.Update(enter)
	require.NotNil(t, cmd)
	assert.True(t, c.starting)

	_, cmd = c.Update(cmd())
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Physics test", msg.Screen.Title())
	assert.NotNil(t, c.env.Attempt.Session())
}

func TestStartFailureIsShown(t *testing.T) {
	c := newForm(t)
	c.Update(key('a'))

	c.Update(startedMsg{err: errors.New("no questions match")})
	assert.False(t, c.starting)
	assert.Contains(t, c.View(100, 50), "no questions match")
}

func TestDescribe(t *testing.T) {
	err := quiz.TestConfig{Subject: "physics"}.Validate()
	assert.Equal(t, "At least one topic is required.", describe(err))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}
