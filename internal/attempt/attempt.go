// Package attempt coordinates one test attempt from configuration through
// question fetch, the live session and result persistence.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abhisek/practest/internal/analytics"
	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/gateway"
	"github.com/abhisek/practest/internal/progress"
	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/session"
)

// Recorder keeps a local summary of completed attempts.
type Recorder interface {
	Record(ctx context.Context, userID string, sub *session.Submission, commitErr error) error
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Gateway   gateway.Gateway
	Progress  *progress.Store
	Auth      auth.CurrentUserer
	Analytics *analytics.Engine
	Recorder  Recorder // optional
	Logger    *slog.Logger
}

// Controller owns the session of the current attempt. Each Start builds a
// new session; the previous one is discarded only once the new questions
// have been fetched.
type Controller struct {
	gw        gateway.Gateway
	progress  *progress.Store
	auth      auth.CurrentUserer
	analytics *analytics.Engine
	recorder  Recorder
	logger    *slog.Logger

	mu      sync.Mutex
	engine  *session.Engine
	config  quiz.TestConfig
	loading bool
	err     error
}

// New creates a controller with no active attempt.
func New(d Deps) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	an := d.Analytics
	if an == nil {
		an = analytics.New(analytics.WithLogger(logger))
	}
	return &Controller{
		gw:        d.Gateway,
		progress:  d.Progress,
		auth:      d.Auth,
		analytics: an,
		recorder:  d.Recorder,
		logger:    logger,
	}
}

// Start validates cfg, fetches its questions and loads them into a fresh
// session. On failure the current session, if any, is kept and the error
// is recorded.
func (c *Controller) Start(ctx context.Context, cfg quiz.TestConfig) (*session.Engine, error) {
	if err := cfg.Validate(); err != nil {
		c.setErr(err)
		return nil, err
	}

	c.mu.Lock()
	c.loading = true
	c.err = nil
	c.mu.Unlock()

	var userID string
	if c.auth != nil {
		if u, ok := c.auth.CurrentUser(); ok {
			userID = u.ID
		}
	}
	questions, err := c.gw.GenerateTest(ctx, cfg, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.err = err
		c.logger.Warn("fetch questions failed", "subject", cfg.Subject, "error", err)
		return nil, err
	}

	e := session.New(
		session.WithCommitter(session.CommitFunc(c.commit)),
		session.WithLogger(c.logger),
	)
	e.Load(cfg.Subject, cfg.Duration, questions)
	c.engine = e
	c.config = cfg

	c.logger.Info("attempt started",
		"attempt", e.AttemptID(),
		"subject", cfg.Subject,
		"questions", len(questions),
		"duration", cfg.Duration)
	return e, nil
}

// Session returns the engine of the current attempt, or nil.
func (c *Controller) Session() *session.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}

// Config returns the configuration of the current attempt.
func (c *Controller) Config() quiz.TestConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Finish completes the current attempt. Calling it again, or after the
// timer has completed the attempt, returns the same submission.
func (c *Controller) Finish(ctx context.Context) (*session.Submission, error) {
	e := c.Session()
	if e == nil {
		return nil, session.ErrNotLoaded
	}
	return e.Complete(ctx)
}

// Analytics returns the analytics engine fed by completed attempts.
func (c *Controller) Analytics() *analytics.Engine {
	return c.analytics
}

// Loading reports whether questions are being fetched.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the last fetch or persistence error.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// commit runs once per attempt, after the session has been frozen. It
// persists the result, reports progress for each attempted question and
// then feeds the settled questions to analytics. Persistence failures do not
// prevent analytics from updating.
func (c *Controller) commit(ctx context.Context, sub *session.Submission) error {
	var errs []error

	user, ok := quiz.User{}, false
	if c.auth != nil {
		user, ok = c.auth.CurrentUser()
	}

	if !ok {
		c.logger.Info("no user, results not persisted", "attempt", sub.AttemptID)
		errs = append(errs, &gateway.PersistError{Op: "results", Err: auth.ErrNoUser})
	} else {
		ack, err := c.gw.SaveResult(ctx, gateway.Result{
			UserID:    user.ID,
			Subject:   sub.Subject,
			Questions: sub.Questions,
			Score:     sub.Score,
			TimeTaken: sub.TimeTaken,
		})
		if err != nil {
			errs = append(errs, err)
		} else {
			c.logger.Info("result saved", "attempt", sub.AttemptID, "result", ack.ID)
		}
		if err := c.reportProgress(ctx, user.ID, sub); err != nil {
			errs = append(errs, err)
		}
	}

	if err := c.analytics.Update(ctx, sub.Questions, sub.TimeTaken); err != nil {
		c.logger.Warn("analytics update failed", "error", err)
	}

	commitErr := errors.Join(errs...)
	if c.recorder != nil {
		if err := c.recorder.Record(ctx, user.ID, sub, commitErr); err != nil {
			c.logger.Warn("record attempt failed", "error", err)
		}
	}
	if commitErr != nil {
		c.setErr(commitErr)
	}
	return commitErr
}

func (c *Controller) reportProgress(ctx context.Context, userID string, sub *session.Submission) error {
	if c.progress == nil {
		return nil
	}
	if len(c.progress.TopicsFor(sub.Subject)) == 0 {
		if err := c.progress.Fetch(ctx, sub.Subject); err != nil {
			return fmt.Errorf("progress topics: %w", err)
		}
	}

	var errs []error
	for _, q := range sub.Questions {
		if !q.IsAttempted {
			continue
		}
		topic, ok := c.progress.Lookup(q.Topic)
		if !ok {
			c.logger.Debug("progress skipped, unknown topic", "topic", q.Topic)
			continue
		}
		if err := c.progress.UpdateProgress(ctx, userID, topic.ID, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
