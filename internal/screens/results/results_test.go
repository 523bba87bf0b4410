package results

import (
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/screens"
	"github.com/abhisek/practest/internal/session"
)

func submission() *session.Submission {
	opts := []quiz.Option{{ID: "a", Text: "Newton"}, {ID: "b", Text: "Joule"}}
	qs := []quiz.TestQuestion{
		{Question: quiz.Question{ID: "q1", Topic: "mechanics", Type: quiz.TypeObjective, Text: "Unit of force?", Options: opts, CorrectAnswer: "a", Explanation: "F = ma"}, IsAttempted: true, SelectedAnswer: "a"},
		{Question: quiz.Question{ID: "q2", Topic: "mechanics", Type: quiz.TypeObjective, Text: "Unit of energy?", Options: opts, CorrectAnswer: "b"}, IsAttempted: true, SelectedAnswer: "a"},
		{Question: quiz.Question{ID: "q3", Topic: "waves", Type: quiz.TypeSubjective, Text: "Unit of frequency?", CorrectAnswer: "hertz"}},
	}
	return &session.Submission{
		Subject:   "physics",
		Questions: qs,
		Score:     quiz.Score(qs),
		Duration:  600,
		TimeTaken: 125,
	}
}

func TestTally(t *testing.T) {
	got := tally(submission().Questions)
	assert.Equal(t, []topicResult{
		{Topic: "mechanics", Total: 2, Correct: 1},
		{Topic: "waves", Total: 1, Correct: 0},
	}, got)
	assert.InDelta(t, 50.0, got[0].percent(), 0.001)
}

func TestDifficultyMix(t *testing.T) {
	qs := []quiz.TestQuestion{
		{Question: quiz.Question{Difficulty: quiz.DifficultyHard}},
		{Question: quiz.Question{Difficulty: quiz.DifficultyEasy}},
		{Question: quiz.Question{Difficulty: quiz.DifficultyHard}},
	}
	assert.Equal(t, "easy 1 · hard 2", difficultyMix(qs))
	assert.Empty(t, difficultyMix(nil))
}

func TestView(t *testing.T) {
	r := New(&screens.Env{}, quiz.Subject{ID: "physics", Name: "Physics"}, submission(), nil)
	v := r.View(100, 40)

	assert.Contains(t, v, "33%")
	assert.Contains(t, v, "1 correct")
	assert.Contains(t, v, "2 attempted")
	assert.Contains(t, v, "2:05")
	assert.Contains(t, v, "Unit of force?")
	assert.Contains(t, v, "F = ma")
	assert.NotContains(t, v, "could not be saved")
}

func TestViewShowsCommitError(t *testing.T) {
	r := New(&screens.Env{}, quiz.Subject{Name: "Physics"}, submission(), errors.New("backend down"))
	assert.Contains(t, r.View(100, 40), "backend down")
}

func TestReviewPaging(t *testing.T) {
	r := New(&screens.Env{}, quiz.Subject{Name: "Physics"}, submission(), nil)

	r.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	assert.Equal(t, 0, r.Reviewing())

	for range 5 {
		r.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	}
	assert.Equal(t, 2, r.Reviewing())
	v := r.View(100, 40)
	assert.Contains(t, v, "Not attempted")
	assert.Contains(t, v, "hertz")
}

func TestExitReturnsToDashboard(t *testing.T) {
	r := New(&screens.Env{}, quiz.Subject{Name: "Physics"}, submission(), nil)
	require.True(t, r.HandlesEscape())

	_, cmd := r.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.NotNil(t, cmd)
}

func TestNilSubmission(t *testing.T) {
	r := New(&screens.Env{}, quiz.Subject{Name: "Physics"}, nil, nil)
	assert.Contains(t, r.View(100, 40), "No result")
}
