// Package gateway is the client for the remote question, progress and
// results service.
package gateway

import (
	"context"

	"github.com/abhisek/practest/internal/quiz"
)

// Result is the body persisted for a completed attempt.
type Result struct {
	UserID    string              `json:"userId"`
	Subject   string              `json:"subject"`
	Questions []quiz.TestQuestion `json:"questions"`
	Score     float64             `json:"score"`
	TimeTaken int                 `json:"timeTaken"`
}

// Ack is the acknowledgement returned by write calls.
type Ack struct {
	ID string `json:"id,omitempty"`
}

// Gateway is the set of remote calls the client depends on. Every call
// fails at most once per invocation; there are no retries.
type Gateway interface {
	Subjects(ctx context.Context) ([]quiz.Subject, error)
	Topics(ctx context.Context, subject string) ([]quiz.Topic, error)
	GenerateTest(ctx context.Context, cfg quiz.TestConfig, userID string) ([]quiz.Question, error)
	SaveResult(ctx context.Context, r Result) (Ack, error)
	UpdateProgress(ctx context.Context, userID, topicID string, completed bool) (Ack, error)
}
