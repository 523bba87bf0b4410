package session

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abhisek/practest/internal/quiz"
)

type countingCommitter struct {
	mu    sync.Mutex
	calls int
	last  *Submission
	err   error
}

func (c *countingCommitter) Commit(_ context.Context, sub *Submission) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.last = sub
	return c.err
}

func (c *countingCommitter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// blockingCommitter holds every commit until release is closed.
type blockingCommitter struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func newBlockingCommitter(err error) *blockingCommitter {
	return &blockingCommitter{
		started: make(chan struct{}),
		release: make(chan struct{}),
		err:     err,
	}
}

func (b *blockingCommitter) Commit(context.Context, *Submission) error {
	close(b.started)
	<-b.release
	return b.err
}

func sampleQuestions() []quiz.Question {
	return []quiz.Question{
		{
			ID: "q1", Subject: "physics", Topic: "mechanics", Type: quiz.TypeObjective,
			Text:          "Unit of force?",
			Options:       []quiz.Option{{ID: "a", Text: "Newton"}, {ID: "b", Text: "Joule"}},
			CorrectAnswer: "a", Difficulty: quiz.DifficultyEasy,
		},
		{
			ID: "q2", Subject: "physics", Topic: "optics", Type: quiz.TypeObjective,
			Text:          "Speed of light is closest to?",
			Options:       []quiz.Option{{ID: "a", Text: "3e8 m/s"}, {ID: "b", Text: "3e5 m/s"}},
			CorrectAnswer: "a", Difficulty: quiz.DifficultyMedium,
		},
		{
			ID: "q3", Subject: "physics", Topic: "mechanics", Type: quiz.TypeSubjective,
			Text:          "State Newton's first law.",
			CorrectAnswer: "An object stays at rest or in uniform motion unless acted on by a net force.",
			Difficulty:    quiz.DifficultyHard,
		},
	}
}

func loaded(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := New(opts...)
	e.Load("physics", 1200, sampleQuestions())
	return e
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_FreshState(t *testing.T) {
	e := loaded(t)

	if e.Phase() != PhaseActive {
		t.Errorf("Phase = %v, want %v", e.Phase(), PhaseActive)
	}
	if e.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex = %d, want 0", e.CurrentIndex())
	}
	if e.TimeRemaining() != 1200 {
		t.Errorf("TimeRemaining = %d, want 1200", e.TimeRemaining())
	}
	if e.AttemptID() == "" {
		t.Error("expected an attempt id")
	}
	for _, q := range e.Questions() {
		if q.IsAttempted || q.IsBookmarked || q.SelectedAnswer != "" {
			t.Errorf("question %s not fresh: %+v", q.ID, q)
		}
	}
}

func TestLoad_NewAttemptID(t *testing.T) {
	e := loaded(t)
	first := e.AttemptID()
	e.Load("physics", 600, sampleQuestions())
	if e.AttemptID() == first {
		t.Error("expected Load to start a new attempt id")
	}
}

func TestNew_Unloaded(t *testing.T) {
	e := New()
	if e.Phase() != PhaseUnloaded {
		t.Errorf("Phase = %v, want %v", e.Phase(), PhaseUnloaded)
	}
	if _, err := e.Navigate(0); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Navigate err = %v, want ErrNotLoaded", err)
	}
	if _, err := e.Complete(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Complete err = %v, want ErrNotLoaded", err)
	}
	if _, _, err := e.Current(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Current err = %v, want ErrNotLoaded", err)
	}
}

func TestNavigate(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		want    int
		clamped bool
	}{
		{"first", 0, 0, false},
		{"last", 2, 2, false},
		{"one past end", 3, 2, true},
		{"far past end", 99, 2, true},
		{"negative", -1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := loaded(t)
			got, err := e.Navigate(tt.index)
			if got != tt.want || e.CurrentIndex() != tt.want {
				t.Errorf("Navigate(%d) = %d (current %d), want %d", tt.index, got, e.CurrentIndex(), tt.want)
			}
			if tt.clamped && !errors.Is(err, ErrOutOfRange) {
				t.Errorf("err = %v, want ErrOutOfRange", err)
			}
			if !tt.clamped && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNavigate_NoQuestionStateChange(t *testing.T) {
	e := loaded(t)
	mustNoErr(t, e.Answer("q2", "a"))
	before := e.Questions()
	_, _ = e.Navigate(2)
	if !reflect.DeepEqual(before, e.Questions()) {
		t.Error("Navigate changed question state")
	}
}

func TestAnswer(t *testing.T) {
	e := loaded(t)
	mustNoErr(t, e.Answer("q1", "b"))

	q := e.Questions()[0]
	if !q.IsAttempted {
		t.Error("expected q1 attempted")
	}
	if q.SelectedAnswer != "b" {
		t.Errorf("SelectedAnswer = %q, want %q", q.SelectedAnswer, "b")
	}
}

func TestAnswer_Idempotent(t *testing.T) {
	once := loaded(t)
	twice := loaded(t)

	mustNoErr(t, once.Answer("q3", "inertia"))
	mustNoErr(t, twice.Answer("q3", "inertia"))
	mustNoErr(t, twice.Answer("q3", "inertia"))

	if !reflect.DeepEqual(once.Questions(), twice.Questions()) {
		t.Error("answering twice differs from answering once")
	}
}

func TestAnswer_EmptyClears(t *testing.T) {
	e := loaded(t)
	mustNoErr(t, e.Answer("q3", "inertia"))
	mustNoErr(t, e.Answer("q3", ""))

	q := e.Questions()[2]
	if q.IsAttempted || q.SelectedAnswer != "" {
		t.Errorf("expected cleared answer, got %+v", q)
	}
}

func TestAnswer_UnknownID(t *testing.T) {
	e := loaded(t)
	before := e.Questions()

	if err := e.Answer("nope", "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if !reflect.DeepEqual(before, e.Questions()) {
		t.Error("unknown id mutated the session")
	}
}

func TestToggleBookmark_Involution(t *testing.T) {
	e := loaded(t)
	before := e.Questions()

	for _, q := range before {
		on, err := e.ToggleBookmark(q.ID)
		mustNoErr(t, err)
		if !on {
			t.Errorf("%s: first toggle = false, want true", q.ID)
		}
	}
	for _, q := range before {
		on, err := e.ToggleBookmark(q.ID)
		mustNoErr(t, err)
		if on {
			t.Errorf("%s: second toggle = true, want false", q.ID)
		}
	}
	if !reflect.DeepEqual(before, e.Questions()) {
		t.Error("double toggle did not restore bookmark state")
	}
}

func TestToggleBookmark_UnknownID(t *testing.T) {
	e := loaded(t)
	if _, err := e.ToggleBookmark("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTick(t *testing.T) {
	e := loaded(t)
	mustNoErr(t, e.Tick(900))
	if e.TimeRemaining() != 900 {
		t.Errorf("TimeRemaining = %d, want 900", e.TimeRemaining())
	}

	mustNoErr(t, e.Tick(-5))
	if e.TimeRemaining() != 0 {
		t.Errorf("TimeRemaining = %d, want 0", e.TimeRemaining())
	}
}

func TestComplete_Scenario(t *testing.T) {
	c := &countingCommitter{}
	e := loaded(t, WithCommitter(c))
	ctx := context.Background()

	mustNoErr(t, e.Answer("q1", "a"))
	_, err := e.Next(ctx)
	mustNoErr(t, err)
	mustNoErr(t, e.Answer("q2", "a"))
	_, err = e.Next(ctx)
	mustNoErr(t, err)
	mustNoErr(t, e.Answer("q3", "things keep moving"))
	mustNoErr(t, e.Tick(1100))

	sub, err := e.Complete(ctx)
	mustNoErr(t, err)
	if sub == nil {
		t.Fatal("expected a submission")
	}

	if math.Abs(sub.Score-66.7) > 0.05 {
		t.Errorf("Score = %.2f, want ~66.7", sub.Score)
	}
	if sub.TimeTaken != 100 {
		t.Errorf("TimeTaken = %d, want 100", sub.TimeTaken)
	}
	if len(sub.Questions) != 3 {
		t.Errorf("len(Questions) = %d, want 3", len(sub.Questions))
	}
	if sub.Correct() != 2 || sub.Attempted() != 3 {
		t.Errorf("Correct/Attempted = %d/%d, want 2/3", sub.Correct(), sub.Attempted())
	}
	if c.Calls() != 1 || len(c.last.Questions) != 3 {
		t.Errorf("commits = %d with %d questions, want 1 with 3", c.Calls(), len(c.last.Questions))
	}
}

func TestComplete_AtMostOnce(t *testing.T) {
	c := &countingCommitter{}
	e := loaded(t, WithCommitter(c))
	ctx := context.Background()

	first, err := e.Complete(ctx)
	mustNoErr(t, err)
	second, err := e.Complete(ctx)
	mustNoErr(t, err)

	if first != second {
		t.Error("second Complete returned a different submission")
	}
	if c.Calls() != 1 {
		t.Errorf("commits = %d, want 1", c.Calls())
	}
	if !e.IsComplete() {
		t.Error("expected session complete")
	}
}

func TestComplete_ConcurrentCallers(t *testing.T) {
	c := &countingCommitter{}
	e := loaded(t, WithCommitter(c))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Complete(context.Background())
		}()
	}
	wg.Wait()
	if c.Calls() != 1 {
		t.Errorf("commits = %d, want 1", c.Calls())
	}
}

func TestComplete_EmptySession(t *testing.T) {
	e := New()
	e.Load("physics", 600, nil)

	sub, err := e.Complete(context.Background())
	mustNoErr(t, err)
	if sub.Score != 0 || sub.TimeTaken != 0 {
		t.Errorf("Score/TimeTaken = %v/%d, want 0/0", sub.Score, sub.TimeTaken)
	}
}

func TestComplete_CommitFailureIsTerminal(t *testing.T) {
	boom := errors.New("backend down")
	c := &countingCommitter{err: boom}
	e := loaded(t, WithCommitter(c))

	if _, err := e.Complete(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if !e.IsComplete() {
		t.Error("expected session complete after failed commit")
	}
	if !errors.Is(e.Err(), boom) {
		t.Errorf("Err() = %v, want %v", e.Err(), boom)
	}

	if _, err := e.Complete(context.Background()); !errors.Is(err, boom) {
		t.Errorf("second err = %v, want %v", err, boom)
	}
	if c.Calls() != 1 {
		t.Errorf("commits = %d, want 1", c.Calls())
	}
}

func TestComplete_SecondCallerWaitsForCommit(t *testing.T) {
	boom := errors.New("backend down")
	b := newBlockingCommitter(boom)
	e := loaded(t, WithCommitter(b))

	firstErr := make(chan error, 1)
	go func() {
		_, err := e.Complete(context.Background())
		firstErr <- err
	}()
	<-b.started

	type result struct {
		sub *Submission
		err error
	}
	second := make(chan result, 1)
	go func() {
		sub, err := e.Complete(context.Background())
		second <- result{sub, err}
	}()

	select {
	case r := <-second:
		t.Fatalf("second Complete returned before the commit finished: sub=%v err=%v", r.sub, r.err)
	case <-time.After(20 * time.Millisecond):
	}

	close(b.release)
	r := <-second
	if r.sub == nil {
		t.Fatal("expected the submission from the second caller")
	}
	if !errors.Is(r.err, boom) {
		t.Errorf("second err = %v, want %v", r.err, boom)
	}
	if err := <-firstErr; !errors.Is(err, boom) {
		t.Errorf("first err = %v, want %v", err, boom)
	}
	if !errors.Is(e.Err(), boom) {
		t.Errorf("Err() = %v, want %v", e.Err(), boom)
	}
}

func TestComplete_WaitHonoursContext(t *testing.T) {
	b := newBlockingCommitter(nil)
	e := loaded(t, WithCommitter(b))
	defer close(b.release)

	go func() { _, _ = e.Complete(context.Background()) }()
	<-b.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	sub, err := e.Complete(ctx)
	if sub == nil {
		t.Fatal("expected the pending submission")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestCountdown_WaitsForPendingCommit(t *testing.T) {
	boom := errors.New("backend down")
	b := newBlockingCommitter(boom)
	e := loaded(t, WithCommitter(b))

	go func() { _, _ = e.Complete(context.Background()) }()
	<-b.started

	type result struct {
		done bool
		err  error
	}
	got := make(chan result, 1)
	go func() {
		done, err := e.Countdown(context.Background())
		got <- result{done, err}
	}()

	select {
	case <-got:
		t.Fatal("Countdown reported completion before the commit finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(b.release)
	r := <-got
	if !r.done {
		t.Error("expected Countdown to report completion")
	}
	if !errors.Is(r.err, boom) {
		t.Errorf("err = %v, want %v", r.err, boom)
	}
}

func TestComplete_FreezesSubmission(t *testing.T) {
	e := loaded(t)
	sub, err := e.Complete(context.Background())
	mustNoErr(t, err)

	if err := e.Answer("q1", "a"); !errors.Is(err, ErrNotActive) {
		t.Errorf("Answer after complete err = %v, want ErrNotActive", err)
	}
	if sub.Questions[0].SelectedAnswer != "" {
		t.Error("submission changed after completion")
	}
}

func TestComplete_UsesClock(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := loaded(t, WithClock(func() time.Time { return at }))
	sub, err := e.Complete(context.Background())
	mustNoErr(t, err)
	if !sub.CompletedAt.Equal(at) {
		t.Errorf("CompletedAt = %v, want %v", sub.CompletedAt, at)
	}
}

func TestNext_LastQuestionCompletes(t *testing.T) {
	c := &countingCommitter{}
	e := loaded(t, WithCommitter(c))
	ctx := context.Background()

	_, _ = e.Navigate(2)
	sub, err := e.Next(ctx)
	mustNoErr(t, err)
	if sub == nil {
		t.Fatal("expected Next on the last question to complete")
	}
	if !e.IsComplete() {
		t.Error("expected session complete")
	}
	if e.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex = %d, want 2", e.CurrentIndex())
	}
	if c.Calls() != 1 {
		t.Errorf("commits = %d, want 1", c.Calls())
	}

	if _, err := e.Next(ctx); !errors.Is(err, ErrNotActive) {
		t.Errorf("Next after complete err = %v, want ErrNotActive", err)
	}
}

func TestPrev_StopsAtFirst(t *testing.T) {
	e := loaded(t)
	if got := e.Prev(); got != 0 {
		t.Errorf("Prev at first = %d, want 0", got)
	}
	_, _ = e.Navigate(2)
	if got := e.Prev(); got != 1 {
		t.Errorf("Prev = %d, want 1", got)
	}
}

func TestCountdown(t *testing.T) {
	c := &countingCommitter{}
	e := New(WithCommitter(c))
	e.Load("physics", 2, sampleQuestions())
	ctx := context.Background()

	done, err := e.Countdown(ctx)
	mustNoErr(t, err)
	if done || e.TimeRemaining() != 1 {
		t.Errorf("step 1: done=%v remaining=%d, want false/1", done, e.TimeRemaining())
	}

	done, _ = e.Countdown(ctx)
	if done || e.TimeRemaining() != 0 {
		t.Errorf("step 2: done=%v remaining=%d, want false/0", done, e.TimeRemaining())
	}

	done, err = e.Countdown(ctx)
	mustNoErr(t, err)
	if !done {
		t.Error("step 3: expected completion")
	}
	if e.Submission().TimeTaken != 2 {
		t.Errorf("TimeTaken = %d, want 2", e.Submission().TimeTaken)
	}

	done, _ = e.Countdown(ctx)
	if !done || c.Calls() != 1 {
		t.Errorf("step 4: done=%v commits=%d, want true/1", done, c.Calls())
	}
}

func TestOverview(t *testing.T) {
	e := loaded(t)
	mustNoErr(t, e.Answer("q1", "a"))
	_, err := e.ToggleBookmark("q3")
	mustNoErr(t, err)
	_, _ = e.Navigate(1)

	want := []NavItem{
		{Index: 0, QuestionID: "q1", Attempted: true},
		{Index: 1, QuestionID: "q2", Current: true},
		{Index: 2, QuestionID: "q3", Bookmarked: true},
	}
	if got := e.Overview(); !reflect.DeepEqual(got, want) {
		t.Errorf("Overview = %+v, want %+v", got, want)
	}
}

func TestTimer_CompletesAttempt(t *testing.T) {
	var commits atomic.Int32
	e := New(WithCommitter(CommitFunc(func(context.Context, *Submission) error {
		commits.Add(1)
		return nil
	})))
	e.Load("physics", 2, sampleQuestions())

	tm := StartTimer(context.Background(), e, time.Millisecond)
	defer tm.Stop()

	select {
	case <-tm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not finish")
	}
	if !e.IsComplete() {
		t.Error("expected the timer to complete the attempt")
	}
	if commits.Load() != 1 {
		t.Errorf("commits = %d, want 1", commits.Load())
	}

	_, err := e.Complete(context.Background())
	mustNoErr(t, err)
	if commits.Load() != 1 {
		t.Errorf("commits after Complete = %d, want 1", commits.Load())
	}
}

func TestTimer_StopReleases(t *testing.T) {
	e := loaded(t)
	tm := StartTimer(context.Background(), e, time.Hour)
	tm.Stop()
	tm.Stop()

	if _, open := <-tm.Events(); open {
		t.Error("expected events channel closed after Stop")
	}
	if e.IsComplete() {
		t.Error("Stop must not complete the attempt")
	}
	if e.TimeRemaining() != 1200 {
		t.Errorf("TimeRemaining = %d, want 1200", e.TimeRemaining())
	}
}

func TestTimer_StaleAttemptIgnored(t *testing.T) {
	e := loaded(t)
	tm := StartTimer(context.Background(), e, time.Millisecond)
	e.Load("physics", 600, sampleQuestions())

	select {
	case <-tm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not exit for stale attempt")
	}
	tm.Stop()
	if e.Phase() != PhaseActive {
		t.Errorf("Phase = %v, want %v", e.Phase(), PhaseActive)
	}
	if e.TimeRemaining() != 600 {
		t.Errorf("TimeRemaining = %d, want 600", e.TimeRemaining())
	}
}
