package session

import (
	"time"

	"github.com/abhisek/practest/internal/quiz"
)

// Submission is the frozen result of a completed attempt.
type Submission struct {
	AttemptID   string
	Subject     string
	Questions   []quiz.TestQuestion
	Score       float64
	Duration    int // configured seconds
	TimeTaken   int // seconds
	CompletedAt time.Time
}

// Correct returns the number of correctly answered questions.
func (s *Submission) Correct() int {
	n := 0
	for _, q := range s.Questions {
		if q.IsCorrect() {
			n++
		}
	}
	return n
}

// Attempted returns the number of questions that received an answer.
func (s *Submission) Attempted() int {
	n := 0
	for _, q := range s.Questions {
		if q.IsAttempted {
			n++
		}
	}
	return n
}
