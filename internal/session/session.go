// Package session implements the state machine for a single timed test attempt.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/practest/internal/quiz"
)

// Committer receives the submission of a completed attempt. It is called at
// most once per attempt.
type Committer interface {
	Commit(ctx context.Context, sub *Submission) error
}

// CommitFunc adapts a function to Committer.
type CommitFunc func(ctx context.Context, sub *Submission) error

// Commit calls f.
func (f CommitFunc) Commit(ctx context.Context, sub *Submission) error {
	return f(ctx, sub)
}

// Option configures an Engine.
type Option func(*Engine)

// WithCommitter sets the collaborator that persists the submission.
func WithCommitter(c Committer) Option {
	return func(e *Engine) { e.committer = c }
}

// WithClock overrides time.Now for CompletedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine owns the question list, cursor, clock and completion of one attempt.
// All methods are safe for concurrent use by the UI and the countdown timer.
type Engine struct {
	mu sync.Mutex

	attemptID string
	subject   string
	duration  int
	questions []quiz.TestQuestion
	current   int
	remaining int
	phase     Phase

	submission *Submission
	commitErr  error
	commit     *pendingCommit

	committer Committer
	now       func() time.Time
	logger    *slog.Logger
}

// New creates an unloaded engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Load replaces the session with qs, each starting unanswered and unbookmarked.
// The clock is set to the configured duration in seconds. Load always starts a
// fresh attempt with a new attempt id.
func (e *Engine) Load(subject string, duration int, qs []quiz.Question) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if duration < 0 {
		duration = 0
	}
	e.attemptID = uuid.New().String()
	e.subject = subject
	e.duration = duration
	e.questions = extend(qs)
	e.current = 0
	e.remaining = duration
	e.phase = PhaseActive
	e.submission = nil
	e.commitErr = nil
	e.commit = nil

	e.logger.Debug("session loaded", "attempt", e.attemptID, "subject", subject, "questions", len(qs), "duration", duration)
}

// AttemptID identifies the currently loaded attempt.
func (e *Engine) AttemptID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attemptID
}

// Phase returns the lifecycle phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// IsComplete reports whether the attempt has been completed.
func (e *Engine) IsComplete() bool {
	return e.Phase() == PhaseComplete
}

// Len returns the number of questions.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.questions)
}

// Questions returns a copy of the question states.
func (e *Engine) Questions() []quiz.TestQuestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]quiz.TestQuestion(nil), e.questions...)
}

// Current returns the question under the cursor and its index.
func (e *Engine) Current() (quiz.TestQuestion, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.questions) == 0 {
		return quiz.TestQuestion{}, 0, ErrNotLoaded
	}
	return e.questions[e.current], e.current, nil
}

// CurrentIndex returns the cursor position.
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// TimeRemaining returns the clock in seconds.
func (e *Engine) TimeRemaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

// Duration returns the configured duration in seconds.
func (e *Engine) Duration() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Navigate moves the cursor to index. Out-of-range indices are clamped into
// the valid range; the clamped index is returned together with ErrOutOfRange.
func (e *Engine) Navigate(index int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.questions)
	if n == 0 {
		return 0, ErrNotLoaded
	}
	clamped := clampIndex(index, n)
	e.current = clamped
	if clamped != index {
		return clamped, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, n)
	}
	return clamped, nil
}

// Prev moves the cursor back one question. It is a no-op on the first question.
func (e *Engine) Prev() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current > 0 {
		e.current--
	}
	return e.current
}

// Next advances the cursor. On the last question it completes the attempt
// instead, returning the submission.
func (e *Engine) Next(ctx context.Context) (*Submission, error) {
	e.mu.Lock()
	if e.phase != PhaseActive {
		e.mu.Unlock()
		return nil, ErrNotActive
	}
	if e.current < len(e.questions)-1 {
		e.current++
		e.mu.Unlock()
		return nil, nil
	}
	e.mu.Unlock()
	return e.Complete(ctx)
}

// Answer records value as the answer to question id. An empty value clears
// the answer so that attempted always tracks a non-empty selection.
func (e *Engine) Answer(id, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseActive {
		return ErrNotActive
	}
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("answer %q: %w", id, ErrNotFound)
	}
	e.questions[i].SelectedAnswer = value
	e.questions[i].IsAttempted = value != ""
	return nil
}

// ToggleBookmark flips the bookmark of question id and returns the new state.
func (e *Engine) ToggleBookmark(id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseActive {
		return false, ErrNotActive
	}
	i := e.indexOf(id)
	if i < 0 {
		return false, fmt.Errorf("bookmark %q: %w", id, ErrNotFound)
	}
	e.questions[i].IsBookmarked = !e.questions[i].IsBookmarked
	return e.questions[i].IsBookmarked, nil
}

// Tick sets the clock to seconds. Negative values are stored as zero.
func (e *Engine) Tick(seconds int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseActive {
		return ErrNotActive
	}
	if seconds < 0 {
		seconds = 0
	}
	e.remaining = seconds
	return nil
}

// Countdown runs one step of the one-second timer: the clock is decremented
// while time remains, and the attempt is completed once it has run out.
// It reports whether the attempt is complete after the step.
func (e *Engine) Countdown(ctx context.Context) (bool, error) {
	return e.countdown(ctx, "")
}

// countdown steps the clock only while attemptID (if set) is still loaded.
func (e *Engine) countdown(ctx context.Context, attemptID string) (bool, error) {
	e.mu.Lock()
	if attemptID != "" && attemptID != e.attemptID {
		e.mu.Unlock()
		return false, errStaleAttempt
	}
	switch e.phase {
	case PhaseComplete:
		e.mu.Unlock()
		_, err := e.Complete(ctx)
		return true, err
	case PhaseUnloaded:
		e.mu.Unlock()
		return false, ErrNotLoaded
	}
	if e.remaining > 0 {
		e.remaining--
		e.mu.Unlock()
		return false, nil
	}
	e.mu.Unlock()

	_, err := e.Complete(ctx)
	return true, err
}

// Complete scores the attempt and hands it to the committer. Only the first
// call on an active session transitions it; later calls wait for that
// commit to return and report the same submission and error without
// committing again. A commit failure is returned and kept in Err, but the
// attempt stays complete.
func (e *Engine) Complete(ctx context.Context) (*Submission, error) {
	e.mu.Lock()
	switch e.phase {
	case PhaseUnloaded:
		e.mu.Unlock()
		return nil, ErrNotLoaded
	case PhaseComplete:
		sub, pc := e.submission, e.commit
		e.mu.Unlock()
		return pc.wait(ctx, sub)
	}

	e.phase = PhaseComplete
	questions := append([]quiz.TestQuestion(nil), e.questions...)
	sub := &Submission{
		AttemptID:   e.attemptID,
		Subject:     e.subject,
		Questions:   questions,
		Score:       quiz.Score(questions),
		Duration:    e.duration,
		TimeTaken:   e.duration - e.remaining,
		CompletedAt: e.now(),
	}
	pc := &pendingCommit{done: make(chan struct{})}
	e.submission = sub
	e.commit = pc
	committer := e.committer
	e.mu.Unlock()

	e.logger.Info("session complete", "attempt", sub.AttemptID, "score", sub.Score, "time_taken", sub.TimeTaken)

	var err error
	if committer != nil {
		err = committer.Commit(ctx, sub)
	}
	if err != nil {
		e.logger.Warn("commit failed", "attempt", sub.AttemptID, "error", err)
		e.mu.Lock()
		if e.submission == sub {
			e.commitErr = err
		}
		e.mu.Unlock()
	}
	pc.err = err
	close(pc.done)
	return sub, err
}

// pendingCommit is the commit of one completed attempt. err is written
// before done is closed.
type pendingCommit struct {
	done chan struct{}
	err  error
}

// wait blocks until the commit has returned, then reports its outcome.
func (pc *pendingCommit) wait(ctx context.Context, sub *Submission) (*Submission, error) {
	select {
	case <-pc.done:
		return sub, pc.err
	case <-ctx.Done():
		return sub, ctx.Err()
	}
}

// Submission returns the result of the completed attempt, or nil.
func (e *Engine) Submission() *Submission {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submission
}

// Err returns the commit error of the completed attempt, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commitErr
}

// Overview returns the navigator state for every question.
func (e *Engine) Overview() []NavItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := make([]NavItem, len(e.questions))
	for i, q := range e.questions {
		items[i] = NavItem{
			Index:      i,
			QuestionID: q.ID,
			Attempted:  q.IsAttempted,
			Bookmarked: q.IsBookmarked,
			Current:    i == e.current,
		}
	}
	return items
}

func (e *Engine) indexOf(id string) int {
	for i := range e.questions {
		if e.questions[i].ID == id {
			return i
		}
	}
	return -1
}
