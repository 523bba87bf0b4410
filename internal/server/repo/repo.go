// Package repo holds the backend's question bank, results and progress.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/practest/internal/quiz"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// QuestionFilter selects questions from the bank. Zero fields match all.
type QuestionFilter struct {
	Subject    string
	Topic      string
	Difficulty quiz.Difficulty
	Types      []quiz.QuestionType
}

// Matches reports whether q passes the filter.
func (f QuestionFilter) Matches(q quiz.Question) bool {
	if f.Subject != "" && q.Subject != f.Subject {
		return false
	}
	if f.Topic != "" && q.Topic != f.Topic {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if q.Type == t {
			return true
		}
	}
	return false
}

// TopicPerformance is the per-topic tally of one result.
type TopicPerformance struct {
	Total    int     `json:"total" bson:"total"`
	Correct  int     `json:"correct" bson:"correct"`
	Accuracy float64 `json:"accuracy" bson:"accuracy"`
}

// Result is a stored test result.
type Result struct {
	ID               string                      `json:"id" bson:"_id"`
	UserID           string                      `json:"userId" bson:"user_id"`
	Subject          string                      `json:"subject" bson:"subject"`
	Questions        []quiz.TestQuestion         `json:"questions" bson:"questions"`
	Score            float64                     `json:"score" bson:"score"`
	TimeTaken        int                         `json:"timeTaken" bson:"time_taken"`
	TopicPerformance map[string]TopicPerformance `json:"topicPerformance" bson:"topic_performance"`
	Improvement      float64                     `json:"improvement" bson:"improvement"`
	CreatedAt        time.Time                   `json:"createdAt" bson:"created_at"`
}

// Bank is a batch of catalog content used for seeding.
type Bank struct {
	Subjects  []quiz.Subject  `json:"subjects"`
	Topics    []quiz.Topic    `json:"topics"`
	Questions []quiz.Question `json:"questions"`
}

// Repository is the backend's storage.
type Repository interface {
	Subjects(ctx context.Context) ([]quiz.Subject, error)

	// Topics returns the topics of subject with TotalQuestions counted from
	// the bank. CompletedQuestions is left zero.
	Topics(ctx context.Context, subject string) ([]quiz.Topic, error)

	// Topic returns one topic by id, or ErrNotFound.
	Topic(ctx context.Context, id string) (quiz.Topic, error)

	Questions(ctx context.Context, f QuestionFilter) ([]quiz.Question, error)
	AddQuestions(ctx context.Context, qs []quiz.Question) error

	// Seed inserts b. Existing ids are replaced.
	Seed(ctx context.Context, b Bank) error
	IsEmpty(ctx context.Context) (bool, error)

	SaveResult(ctx context.Context, r Result) error

	// LatestResult returns the newest result of userID for subject, or
	// ErrNotFound.
	LatestResult(ctx context.Context, userID, subject string) (Result, error)

	// Results lists userID's results newest first. limit <= 0 means all.
	Results(ctx context.Context, userID string, limit int) ([]Result, error)

	// IncrementProgress bumps the completed count of topicID for userID,
	// never past limit, and returns the new count.
	IncrementProgress(ctx context.Context, userID, topicID string, limit int) (int, error)

	// Progress returns completed counts keyed by topic id.
	Progress(ctx context.Context, userID string) (map[string]int, error)

	Close(ctx context.Context) error
}
