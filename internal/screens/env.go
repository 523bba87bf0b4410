// Package screens holds the collaborators shared by the TUI screens.
package screens

import (
	"context"
	"log/slog"
	"time"

	"github.com/abhisek/practest/internal/attempt"
	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/catalog"
	"github.com/abhisek/practest/internal/progress"
	"github.com/abhisek/practest/internal/store"
)

// DefaultRequestTimeout bounds each remote call made from a screen.
const DefaultRequestTimeout = 20 * time.Second

// AttemptHistory lists locally recorded attempts.
type AttemptHistory interface {
	Recent(ctx context.Context, userID string, limit int) ([]store.AttemptRecord, error)
}

// Env is the application state handed to every screen.
type Env struct {
	Auth     *auth.Stub
	Catalog  *catalog.Store
	Progress *progress.Store
	Attempt  *attempt.Controller
	History  AttemptHistory // optional
	Logger   *slog.Logger

	// TickInterval is the length of one countdown second; zero means real time.
	TickInterval time.Duration

	// RequestTimeout bounds remote calls; zero means DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// Context returns a context for one remote call.
func (e *Env) Context() (context.Context, context.CancelFunc) {
	d := e.RequestTimeout
	if d <= 0 {
		d = DefaultRequestTimeout
	}
	return context.WithTimeout(context.Background(), d)
}

// UserLabel returns the signed-in user's display name, "" when signed out.
func (e *Env) UserLabel() string {
	if e.Auth == nil {
		return ""
	}
	if u, ok := e.Auth.CurrentUser(); ok {
		return u.Name
	}
	return ""
}

// RefreshMsg asks the active screen to reload its data. It is sent after a
// screen above it has been popped.
type RefreshMsg struct{}
