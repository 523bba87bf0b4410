// Package screenstest builds screen environments backed by an in-memory
// gateway.
package screenstest

import (
	"log/slog"
	"testing"

	"github.com/abhisek/practest/internal/analytics"
	"github.com/abhisek/practest/internal/attempt"
	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/catalog"
	"github.com/abhisek/practest/internal/gateway"
	"github.com/abhisek/practest/internal/progress"
	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/screens"
)

// Physics is the subject served by Fake.
var Physics = quiz.Subject{ID: "physics", Name: "Physics", Description: "Mechanics and waves"}

// Fake returns a gateway with one subject, two topics and three questions.
func Fake() *gateway.Fake {
	opts := []quiz.Option{{ID: "a", Text: "Newton"}, {ID: "b", Text: "Joule"}}
	return &gateway.Fake{
		SubjectList: []quiz.Subject{Physics, {ID: "chemistry", Name: "Chemistry"}},
		TopicList: map[string][]quiz.Topic{
			"physics": {
				{ID: "mechanics", Name: "Mechanics", Subject: "physics", TotalQuestions: 4, CompletedQuestions: 1},
				{ID: "waves", Name: "Waves", Subject: "physics", TotalQuestions: 2},
			},
		},
		QuestionSet: []quiz.Question{
			{ID: "q1", Subject: "physics", Topic: "mechanics", Type: quiz.TypeObjective, Text: "Unit of force?", Options: opts, CorrectAnswer: "a", Difficulty: quiz.DifficultyEasy},
			{ID: "q2", Subject: "physics", Topic: "mechanics", Type: quiz.TypeObjective, Text: "Unit of energy?", Options: opts, CorrectAnswer: "b", Difficulty: quiz.DifficultyMedium},
			{ID: "q3", Subject: "physics", Topic: "waves", Type: quiz.TypeSubjective, Text: "Unit of frequency?", CorrectAnswer: "hertz", Difficulty: quiz.DifficultyEasy},
		},
	}
}

// Env wires every store to gw with a signed-in learner.
func Env(t testing.TB, gw gateway.Gateway) *screens.Env {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	a := auth.NewStub()
	if _, err := a.Login("ada@example.com"); err != nil {
		t.Fatalf("login: %v", err)
	}
	prog := progress.New(gw, logger)
	return &screens.Env{
		Auth:     a,
		Catalog:  catalog.New(gw, logger),
		Progress: prog,
		Attempt: attempt.New(attempt.Deps{
			Gateway:   gw,
			Progress:  prog,
			Auth:      a,
			Analytics: analytics.New(analytics.WithLogger(logger)),
			Logger:    logger,
		}),
		Logger: logger,
	}
}
