package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/router"
	"github.com/abhisek/practest/internal/screens"
	sess "github.com/abhisek/practest/internal/session"
)

var physics = quiz.Subject{ID: "physics", Name: "Physics"}

func testQuestions() []quiz.Question {
	opts := []quiz.Option{{ID: "a", Text: "1"}, {ID: "b", Text: "2"}, {ID: "c", Text: "3"}}
	return []quiz.Question{
		{ID: "q1", Subject: "physics", Topic: "mechanics", Type: quiz.TypeObjective, Text: "One?", Options: opts, CorrectAnswer: "a", Difficulty: quiz.DifficultyEasy},
		{ID: "q2", Subject: "physics", Topic: "waves", Type: quiz.TypeSubjective, Text: "Two?", CorrectAnswer: "hertz", Difficulty: quiz.DifficultyMedium},
		{ID: "q3", Subject: "physics", Topic: "waves", Type: quiz.TypeObjective, Text: "Three?", Options: opts, CorrectAnswer: "c", Difficulty: quiz.DifficultyHard},
	}
}

func newScreen(t *testing.T) (*SessionScreen, *sess.Engine) {
	t.Helper()
	e := sess.New()
	e.Load("physics", 600, testQuestions())
	return New(&screens.Env{}, e, physics), e
}

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func ctrl(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

var (
	tab      = tea.KeyPressMsg{Code: tea.KeyTab}
	shiftTab = tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}
	enter    = tea.KeyPressMsg{Code: tea.KeyEnter}
)

func TestSelectOptionRecordsAnswer(t *testing.T) {
	s, e := newScreen(t)

	s.Update(key('2'))

	q := e.Questions()[0]
	assert.True(t, q.IsAttempted)
	assert.Equal(t, "b", q.SelectedAnswer)

	s.Update(key('x'))
	q = e.Questions()[0]
	assert.False(t, q.IsAttempted)
	assert.Empty(t, q.SelectedAnswer)
}

func TestTabNavigation(t *testing.T) {
	s, e := newScreen(t)

	s.Update(tab)
	assert.Equal(t, 1, e.CurrentIndex())
	assert.Equal(t, "q2", s.questionID)

	s.Update(shiftTab)
	assert.Equal(t, 0, e.CurrentIndex())

	s.Update(shiftTab)
	assert.Equal(t, 0, e.CurrentIndex(), "prev stays on the first question")
}

func TestSubjectiveAnswerIsTrimmed(t *testing.T) {
	s, e := newScreen(t)
	s.Update(tab)

	for _, r := range " hertz " {
		s.Update(key(r))
	}
	q := e.Questions()[1]
	assert.Equal(t, "hertz", q.SelectedAnswer)
	assert.True(t, q.IsAttempted)
}

func TestAnswerSurvivesNavigation(t *testing.T) {
	s, e := newScreen(t)
	s.Update(key('3'))
	s.Update(tab)
	s.Update(shiftTab)

	assert.Equal(t, "c", s.choices.Chosen)
	assert.Equal(t, "c", e.Questions()[0].SelectedAnswer)
}

func TestBookmarkToggle(t *testing.T) {
	s, e := newScreen(t)

	s.Update(ctrl('b'))
	assert.True(t, e.Questions()[0].IsBookmarked)
	assert.Contains(t, s.View(100, 40), "bookmarked")

	s.Update(ctrl('b'))
	assert.False(t, e.Questions()[0].IsBookmarked)
}

func TestNavigatorJump(t *testing.T) {
	s, e := newScreen(t)

	s.Update(ctrl('g'))
	require.True(t, s.navigating)
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	s.Update(enter)

	assert.False(t, s.navigating)
	assert.Equal(t, 2, e.CurrentIndex())
}

func TestSubmitFromLastQuestion(t *testing.T) {
	s, e := newScreen(t)
	s.Update(key('1'))
	s.Update(tab)
	s.Update(tab)

	_, cmd := s.Update(tab)
	assert.Nil(t, cmd)
	require.True(t, s.confirming, "tab on the last question asks to submit")
	assert.Contains(t, s.View(100, 40), "2 question(s) are unanswered")

	_, cmd = s.Update(key('y'))
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(completedMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.True(t, e.IsComplete())

	_, cmd = s.Update(msg)
	require.NotNil(t, cmd)
	_, ok = cmd().(router.ReplaceScreenMsg)
	assert.True(t, ok)

	sub := e.Submission()
	require.NotNil(t, sub)
	assert.Equal(t, 1, sub.Correct())
}

func TestCancelSubmit(t *testing.T) {
	s, e := newScreen(t)

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.True(t, s.confirming)
	s.Update(key('n'))

	assert.False(t, s.confirming)
	assert.False(t, e.IsComplete())
}

func TestTimerExpiryShowsResults(t *testing.T) {
	s, e := newScreen(t)

	_, err := e.Complete(t.Context())
	require.NoError(t, err)

	_, cmd := s.Update(tickMsg{Event: sess.TickEvent{Complete: true}})
	require.NotNil(t, cmd)
	msg, ok := cmd().(completedMsg)
	require.True(t, ok)

	_, cmd = s.Update(msg)
	require.NotNil(t, cmd)
	_, ok = cmd().(router.ReplaceScreenMsg)
	assert.True(t, ok)

	_, cmd = s.Update(timerStoppedMsg{})
	assert.Nil(t, cmd, "results are shown only once")
}

// gatedCommitter fails every commit once release is closed.
type gatedCommitter struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedCommitter) Commit(context.Context, *sess.Submission) error {
	close(g.started)
	<-g.release
	return errors.New("backend down")
}

func resultsView(t *testing.T, cmd tea.Cmd) string {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)
	return msg.Screen.View(100, 40)
}

func TestTimerExpiryDuringSubmitShowsSaveFailure(t *testing.T) {
	g := &gatedCommitter{started: make(chan struct{}), release: make(chan struct{})}
	e := sess.New(sess.WithCommitter(g))
	e.Load("physics", 600, testQuestions())
	s := New(&screens.Env{}, e, physics)

	s.Update(ctrl('s'))
	_, submit := s.Update(key('y'))
	require.NotNil(t, submit)
	submitted := make(chan tea.Msg, 1)
	go func() { submitted <- submit() }()
	<-g.started

	// The timer reports completion while the manual submit is still saving.
	_, cmd := s.Update(tickMsg{Event: sess.TickEvent{Complete: true}})
	assert.Nil(t, cmd, "the pending submit delivers the outcome")

	close(g.release)
	_, cmd = s.Update(<-submitted)
	assert.Contains(t, resultsView(t, cmd), "backend down")
}

func TestTimerCompletionWaitsForSave(t *testing.T) {
	g := &gatedCommitter{started: make(chan struct{}), release: make(chan struct{})}
	e := sess.New(sess.WithCommitter(g))
	e.Load("physics", 600, testQuestions())
	s := New(&screens.Env{}, e, physics)

	go func() { _, _ = e.Complete(context.Background()) }()
	<-g.started

	_, settle := s.Update(timerStoppedMsg{})
	require.NotNil(t, settle)
	settled := make(chan tea.Msg, 1)
	go func() { settled <- settle() }()

	select {
	case <-settled:
		t.Fatal("completion reported before the save finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(g.release)
	_, cmd := s.Update(<-settled)
	assert.Contains(t, resultsView(t, cmd), "backend down")
}

func TestTimerRunsAndStops(t *testing.T) {
	e := sess.New()
	e.Load("physics", 600, testQuestions())
	s := New(&screens.Env{TickInterval: time.Millisecond}, e, physics)

	cmd := s.Init()
	require.NotNil(t, cmd)
	require.Eventually(t, func() bool { return e.TimeRemaining() < 600 }, time.Second, time.Millisecond)

	s.Close()
	select {
	case <-s.timer.Done():
	default:
		t.Fatal("timer still running after Close")
	}
	s.Close()
}

func TestViewShowsClockAndPosition(t *testing.T) {
	s, _ := newScreen(t)
	v := s.View(100, 40)

	assert.Contains(t, v, "Question 1 of 3")
	assert.Contains(t, v, "10:00")
	assert.True(t, strings.Contains(v, "One?"))
}
