// Package catalog holds the list of subjects offered by the backend.
package catalog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/abhisek/practest/internal/gateway"
	"github.com/abhisek/practest/internal/quiz"
)

// Store caches the subject list. A failed fetch keeps the previous list
// and records the error until the next successful fetch.
type Store struct {
	gw     gateway.Gateway
	logger *slog.Logger

	mu       sync.RWMutex
	subjects []quiz.Subject
	loading  bool
	err      error
}

// New creates an empty store.
func New(gw gateway.Gateway, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{gw: gw, logger: logger}
}

// Fetch loads the subject list from the backend.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	subjects, err := s.gw.Subjects(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		s.logger.Warn("fetch subjects failed", "error", err)
		return err
	}
	s.subjects = subjects
	return nil
}

// Subjects returns a copy of the cached subjects.
func (s *Store) Subjects() []quiz.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]quiz.Subject(nil), s.subjects...)
}

// Lookup finds a subject by id.
func (s *Store) Lookup(id string) (quiz.Subject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subjects {
		if sub.ID == id {
			return sub, true
		}
	}
	return quiz.Subject{}, false
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error of the last fetch, if it failed.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}
