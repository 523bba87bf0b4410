// Package auth provides the stub authenticator used by the client. It does
// not talk to any identity provider.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/abhisek/practest/internal/quiz"
)

// ErrNoUser is returned when an operation needs a logged-in user.
var ErrNoUser = errors.New("no user logged in")

// ErrInvalidEmail is returned by Login for an unusable email address.
var ErrInvalidEmail = errors.New("invalid email")

// CurrentUserer exposes the logged-in user.
type CurrentUserer interface {
	CurrentUser() (quiz.User, bool)
}

// Stub fabricates a user from the login email. The user id is derived
// from the email so that the same learner keeps the same id across runs.
type Stub struct {
	mu   sync.RWMutex
	user *quiz.User
}

// NewStub returns a logged-out authenticator.
func NewStub() *Stub {
	return &Stub{}
}

// UserFor builds the user fabricated for email without logging in.
func UserFor(email string) (quiz.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return quiz.User{}, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return quiz.User{
		ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Name:  email[:at],
		Email: email,
	}, nil
}

// Login accepts any well-formed email and fabricates a user for it.
func (s *Stub) Login(email string) (quiz.User, error) {
	u, err := UserFor(email)
	if err != nil {
		return quiz.User{}, err
	}
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return u, nil
}

// Logout clears the current user.
func (s *Stub) Logout() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// CurrentUser returns the logged-in user, if any.
func (s *Stub) CurrentUser() (quiz.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return quiz.User{}, false
	}
	return *s.user, true
}
