// Package session is the timed test screen.
package session

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/router"
	"github.com/abhisek/practest/internal/screen"
	"github.com/abhisek/practest/internal/screens"
	"github.com/abhisek/practest/internal/screens/results"
	sess "github.com/abhisek/practest/internal/session"
	"github.com/abhisek/practest/internal/ui/components"
	"github.com/abhisek/practest/internal/ui/layout"
)

// navColumns is the width of the question navigator grid.
const navColumns = 10

// SessionScreen implements screen.Screen for a running attempt.
type SessionScreen struct {
	env     *screens.Env
	engine  *sess.Engine
	subject quiz.Subject
	timer   *sess.Timer

	questionID string
	choices    components.ChoiceList
	input      components.TextInput

	confirming bool
	navigating bool
	navCursor  int
	submitting bool
	done       bool
	errMsg     string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.EscapeHandler = (*SessionScreen)(nil)
var _ router.Closer = (*SessionScreen)(nil)

// New creates the screen for a loaded engine. The countdown starts in Init.
func New(env *screens.Env, engine *sess.Engine, subject quiz.Subject) *SessionScreen {
	s := &SessionScreen{
		env:     env,
		engine:  engine,
		subject: subject,
		input:   components.NewTextInput("Type your answer...", false, 200),
	}
	s.syncQuestion()
	return s
}

func (s *SessionScreen) Init() tea.Cmd {
	s.timer = sess.StartTimer(context.Background(), s.engine, s.env.TickInterval)
	return tea.Batch(s.waitTick(), s.input.Init())
}

// Close stops the countdown. The router calls it when the screen is removed.
func (s *SessionScreen) Close() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *SessionScreen) Title() string {
	return s.subject.Name + " test"
}

func (s *SessionScreen) HandlesEscape() bool {
	return true
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.confirming:
		return []layout.KeyHint{
			{Key: "Y", Description: "Submit"},
			{Key: "N", Description: "Keep going"},
		}
	case s.navigating:
		return []layout.KeyHint{
			{Key: "Arrows", Description: "Move"},
			{Key: "Enter", Description: "Go to question"},
			{Key: "Esc", Description: "Close"},
		}
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next"},
		{Key: "Shift+Tab", Description: "Prev"},
		{Key: "Ctrl+B", Description: "Bookmark"},
		{Key: "Ctrl+G", Description: "Navigator"},
		{Key: "Ctrl+S", Description: "Submit"},
	}
}

// waitTick blocks on the next timer event.
func (s *SessionScreen) waitTick() tea.Cmd {
	if s.timer == nil {
		return nil
	}
	events := s.timer.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return timerStoppedMsg{}
		}
		return tickMsg{Event: ev}
	}
}

// syncQuestion rebuilds the answer widgets for the engine's current question.
func (s *SessionScreen) syncQuestion() tea.Cmd {
	q, _, err := s.engine.Current()
	if err != nil {
		return nil
	}
	s.questionID = q.ID
	if q.Type == quiz.TypeObjective {
		s.choices = components.NewChoiceList(q.Options, q.SelectedAnswer)
		s.input.Blur()
		return nil
	}
	s.input.SetValue(q.SelectedAnswer)
	return s.input.Focus()
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if s.done {
		return s, nil
	}

	switch msg := msg.(type) {
	case tickMsg:
		if msg.Event.Complete {
			return s, s.settle()
		}
		if msg.Event.Err != nil {
			s.errMsg = msg.Event.Err.Error()
		}
		return s, s.waitTick()

	case timerStoppedMsg:
		if s.engine.IsComplete() {
			return s, s.settle()
		}
		return s, nil

	case completedMsg:
		s.submitting = false
		if msg.Submission == nil {
			if msg.Err != nil {
				s.errMsg = "Could not submit: " + msg.Err.Error()
			}
			return s, nil
		}
		return s, s.finish(msg.Err)

	case tea.KeyPressMsg:
		switch {
		case s.submitting:
			return s, nil
		case s.confirming:
			return s, s.updateConfirm(msg)
		case s.navigating:
			return s, s.updateNavigator(msg)
		}
		return s, s.updateAnswering(msg)
	}

	if s.isSubjective() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SessionScreen) updateConfirm(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "y", "enter":
		s.confirming = false
		return s.submit()
	case "n", "esc":
		s.confirming = false
	}
	return nil
}

func (s *SessionScreen) updateNavigator(msg tea.KeyPressMsg) tea.Cmd {
	n := s.engine.Len()
	switch msg.String() {
	case "left", "h":
		s.navCursor = max(s.navCursor-1, 0)
	case "right", "l":
		s.navCursor = min(s.navCursor+1, n-1)
	case "up", "k":
		if s.navCursor-navColumns >= 0 {
			s.navCursor -= navColumns
		}
	case "down", "j":
		if s.navCursor+navColumns < n {
			s.navCursor += navColumns
		}
	case "enter":
		s.navigating = false
		return s.goTo(s.navCursor)
	case "esc", "ctrl+g":
		s.navigating = false
	}
	return nil
}

func (s *SessionScreen) updateAnswering(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		return s.next()
	case "shift+tab":
		return s.prev()
	case "ctrl+b":
		if _, err := s.engine.ToggleBookmark(s.questionID); err != nil {
			s.errMsg = err.Error()
		}
		return nil
	case "ctrl+g":
		s.navigating = true
		s.navCursor = s.engine.CurrentIndex()
		return nil
	case "ctrl+s", "esc":
		s.confirming = true
		return nil
	}

	if s.isSubjective() {
		before := s.input.Value()
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		if after := s.input.Value(); after != before {
			s.answer(strings.TrimSpace(after))
		}
		return cmd
	}

	switch msg.String() {
	case "right", "l":
		return s.next()
	case "left", "h":
		return s.prev()
	case "backspace", "delete", "x":
		s.choices.Chosen = ""
		s.answer("")
		return nil
	}
	var changed bool
	s.choices, changed = s.choices.Update(msg)
	if changed {
		s.answer(s.choices.Chosen)
	}
	return nil
}

// next moves forward, asking to submit from the last question.
func (s *SessionScreen) next() tea.Cmd {
	i := s.engine.CurrentIndex()
	if i >= s.engine.Len()-1 {
		s.confirming = true
		return nil
	}
	return s.goTo(i + 1)
}

func (s *SessionScreen) prev() tea.Cmd {
	s.engine.Prev()
	return s.syncQuestion()
}

func (s *SessionScreen) answer(value string) {
	if err := s.engine.Answer(s.questionID, value); err != nil {
		s.errMsg = err.Error()
		return
	}
	s.errMsg = ""
}

func (s *SessionScreen) goTo(i int) tea.Cmd {
	if _, err := s.engine.Navigate(i); err != nil {
		s.errMsg = err.Error()
	}
	return s.syncQuestion()
}

func (s *SessionScreen) isSubjective() bool {
	q, _, err := s.engine.Current()
	return err == nil && q.Type == quiz.TypeSubjective
}

// submit completes the attempt off the UI goroutine since it commits the
// result to the backend.
func (s *SessionScreen) submit() tea.Cmd {
	s.submitting = true
	env, engine := s.env, s.engine
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		sub, err := engine.Complete(ctx)
		return completedMsg{Submission: sub, Err: err}
	}
}

// settle waits for the commit of an attempt completed by the timer. A
// submit already in flight delivers the same outcome.
func (s *SessionScreen) settle() tea.Cmd {
	if s.submitting {
		return nil
	}
	return s.submit()
}

// finish hands the completed attempt to the results screen exactly once.
func (s *SessionScreen) finish(commitErr error) tea.Cmd {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.engine.Err(); err != nil {
		commitErr = err
	}
	return router.Replace(results.New(s.env, s.subject, s.engine.Submission(), commitErr))
}
