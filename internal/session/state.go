package session

import (
	"errors"

	"github.com/abhisek/practest/internal/quiz"
)

// Phase is the lifecycle phase of an attempt.
type Phase int

const (
	PhaseUnloaded Phase = iota // No questions loaded
	PhaseActive                // Accepting answers, clock running
	PhaseComplete              // Scored and handed off, terminal
)

func (p Phase) String() string {
	switch p {
	case PhaseUnloaded:
		return "unloaded"
	case PhaseActive:
		return "active"
	case PhaseComplete:
		return "complete"
	}
	return "unknown"
}

var (
	// ErrNotFound is returned when a question id is not part of the session.
	ErrNotFound = errors.New("question not found")

	// ErrNotLoaded is returned by operations that need questions before any are loaded.
	ErrNotLoaded = errors.New("session not loaded")

	// ErrNotActive is returned when mutating a session that is not active.
	ErrNotActive = errors.New("session not active")

	// ErrOutOfRange is returned alongside the clamped index when navigating
	// outside the question list.
	ErrOutOfRange = errors.New("question index out of range")

	errStaleAttempt = errors.New("attempt replaced")
)

// NavItem is the navigator view of one question.
type NavItem struct {
	Index      int
	QuestionID string
	Attempted  bool
	Bookmarked bool
	Current    bool
}

func extend(qs []quiz.Question) []quiz.TestQuestion {
	out := make([]quiz.TestQuestion, len(qs))
	for i, q := range qs {
		out[i] = quiz.NewTestQuestion(q)
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
