// Package progress tracks per-topic completion counters for each subject.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abhisek/practest/internal/gateway"
	"github.com/abhisek/practest/internal/quiz"
)

// ErrNotFound is returned when updating a topic that has not been fetched.
var ErrNotFound = errors.New("topic not found")

// Store holds the topics of every fetched subject. Fetching a subject
// replaces its topics wholesale; progress updates mutate single counters.
type Store struct {
	gw     gateway.Gateway
	logger *slog.Logger

	mu      sync.RWMutex
	topics  []quiz.Topic
	loading bool
	err     error
}

// New creates an empty store.
func New(gw gateway.Gateway, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{gw: gw, logger: logger}
}

// Fetch loads the topics of subject. On failure the stored topics are left
// untouched and the error is recorded.
func (s *Store) Fetch(ctx context.Context, subject string) error {
	s.setLoading()

	topics, err := s.gw.Topics(ctx, subject)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		s.logger.Warn("fetch topics failed", "subject", subject, "error", err)
		return err
	}

	kept := s.topics[:0:0]
	for _, t := range s.topics {
		if t.Subject != subject {
			kept = append(kept, t)
		}
	}
	for _, t := range topics {
		if t.Subject == "" {
			t.Subject = subject
		}
		t.CompletedQuestions = bound(t.CompletedQuestions, t.TotalQuestions)
		kept = append(kept, t)
	}
	s.topics = kept
	return nil
}

// UpdateProgress reports a completed (or not) question for topicID and, on
// success, bumps the topic's completed counter. The counter never exceeds
// the topic's total.
func (s *Store) UpdateProgress(ctx context.Context, userID, topicID string, completed bool) error {
	s.mu.RLock()
	known := s.indexOf(topicID) >= 0
	s.mu.RUnlock()
	if !known {
		return fmt.Errorf("update progress %q: %w", topicID, ErrNotFound)
	}

	s.setLoading()
	_, err := s.gw.UpdateProgress(ctx, userID, topicID, completed)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		s.logger.Warn("update progress failed", "topic", topicID, "error", err)
		return err
	}
	if i := s.indexOf(topicID); i >= 0 && completed {
		t := &s.topics[i]
		t.CompletedQuestions = bound(t.CompletedQuestions+1, t.TotalQuestions)
	}
	return nil
}

// Topics returns a copy of all stored topics.
func (s *Store) Topics() []quiz.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]quiz.Topic(nil), s.topics...)
}

// TopicsFor returns the topics of one subject in fetch order.
func (s *Store) TopicsFor(subject string) []quiz.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []quiz.Topic
	for _, t := range s.topics {
		if t.Subject == subject {
			out = append(out, t)
		}
	}
	return out
}

// Lookup finds a topic by id or by name.
func (s *Store) Lookup(key string) (quiz.Topic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(key); i >= 0 {
		return s.topics[i], true
	}
	for _, t := range s.topics {
		if t.Name == key {
			return t, true
		}
	}
	return quiz.Topic{}, false
}

// Percent returns the completion of a topic in percent, 0 for an unknown
// topic or one without questions.
func (s *Store) Percent(topicID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(topicID)
	if i < 0 {
		return 0
	}
	return Percent(s.topics[i])
}

// Percent returns t's completion in percent.
func Percent(t quiz.Topic) float64 {
	if t.TotalQuestions <= 0 {
		return 0
	}
	return float64(t.CompletedQuestions) / float64(t.TotalQuestions) * 100
}

// Loading reports whether a remote call is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error of the last failed call.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) setLoading() {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()
}

func (s *Store) indexOf(id string) int {
	for i := range s.topics {
		if s.topics[i].ID == id {
			return i
		}
	}
	return -1
}

func bound(completed, total int) int {
	if completed < 0 {
		return 0
	}
	if total >= 0 && completed > total {
		return total
	}
	return completed
}
