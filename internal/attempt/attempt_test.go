package attempt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/gateway"
	"github.com/abhisek/practest/internal/progress"
	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/session"
)

type recorded struct {
	userID string
	sub    *session.Submission
	err    error
}

type fakeRecorder struct{ calls []recorded }

func (f *fakeRecorder) Record(_ context.Context, userID string, sub *session.Submission, err error) error {
	f.calls = append(f.calls, recorded{userID, sub, err})
	return nil
}

func testGateway() *gateway.Fake {
	return &gateway.Fake{
		TopicList: map[string][]quiz.Topic{
			"physics": {
				{ID: "mech", Name: "mechanics", Subject: "physics", TotalQuestions: 10},
				{ID: "opt", Name: "optics", Subject: "physics", TotalQuestions: 10},
			},
		},
		QuestionSet: []quiz.Question{
			{ID: "q1", Topic: "mechanics", Type: quiz.TypeObjective, CorrectAnswer: "a", Difficulty: quiz.DifficultyEasy},
			{ID: "q2", Topic: "optics", Type: quiz.TypeObjective, CorrectAnswer: "b", Difficulty: quiz.DifficultyMedium},
			{ID: "q3", Topic: "mechanics", Type: quiz.TypeSubjective, CorrectAnswer: "inertia", Difficulty: quiz.DifficultyHard},
		},
	}
}

func testConfig() quiz.TestConfig {
	cfg := quiz.DefaultTestConfig("physics")
	cfg.Topics = []string{"mech", "opt"}
	return cfg
}

func loggedIn(t *testing.T) *auth.Stub {
	t.Helper()
	a := auth.NewStub()
	_, err := a.Login("ada@example.com")
	require.NoError(t, err)
	return a
}

func TestStartAndFinish(t *testing.T) {
	gw := testGateway()
	a := loggedIn(t)
	rec := &fakeRecorder{}
	c := New(Deps{Gateway: gw, Progress: progress.New(gw, nil), Auth: a, Recorder: rec})
	ctx := context.Background()

	e, err := c.Start(ctx, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, e.Len())
	assert.Equal(t, 1200, e.TimeRemaining())
	assert.Same(t, e, c.Session())

	require.NoError(t, e.Answer("q1", "a"))
	require.NoError(t, e.Answer("q2", "a"))
	require.NoError(t, e.Tick(1100))

	sub, err := c.Finish(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 100.0/3, sub.Score, 1e-9)
	assert.Equal(t, 100, sub.TimeTaken)

	results := gw.SavedResults()
	require.Len(t, results, 1)
	u, _ := a.CurrentUser()
	assert.Equal(t, u.ID, results[0].UserID)
	assert.Len(t, results[0].Questions, 3)
	assert.Equal(t, 100, results[0].TimeTaken)

	calls := gw.Progress()
	require.Len(t, calls, 2)
	assert.Equal(t, "mech", calls[0].TopicID)
	assert.Equal(t, "opt", calls[1].TopicID)

	snap, err := c.Analytics().Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Trend, 1)
	assert.InDelta(t, 100.0/3, snap.Trend[0].Score, 1e-9)
	assert.InDelta(t, 100.0/3, snap.AverageTimePerQuestion, 1e-9)

	require.Len(t, rec.calls, 1)
	assert.NoError(t, rec.calls[0].err)

	again, err := c.Finish(ctx)
	require.NoError(t, err)
	assert.Same(t, sub, again)
	assert.Len(t, gw.SavedResults(), 1)
	assert.Len(t, rec.calls, 1)
}

func TestStart_InvalidConfig(t *testing.T) {
	c := New(Deps{Gateway: testGateway()})
	cfg := testConfig()
	cfg.Topics = nil

	_, err := c.Start(context.Background(), cfg)
	assert.ErrorIs(t, err, quiz.ErrInvalidConfig)
	assert.ErrorIs(t, c.Err(), quiz.ErrInvalidConfig)
}

func TestStart_FetchFailureKeepsSession(t *testing.T) {
	gw := testGateway()
	c := New(Deps{Gateway: gw})
	ctx := context.Background()

	first, err := c.Start(ctx, testConfig())
	require.NoError(t, err)

	gw.GenerateErr = errors.New("offline")
	_, err = c.Start(ctx, testConfig())
	assert.True(t, gateway.IsFetchFailure(err))
	assert.True(t, gateway.IsFetchFailure(c.Err()))
	assert.False(t, c.Loading())
	assert.Same(t, first, c.Session())
}

func TestFinish_NoUserIsNotFatal(t *testing.T) {
	gw := testGateway()
	rec := &fakeRecorder{}
	c := New(Deps{Gateway: gw, Auth: auth.NewStub(), Recorder: rec})
	ctx := context.Background()

	e, err := c.Start(ctx, testConfig())
	require.NoError(t, err)
	require.NoError(t, e.Answer("q1", "a"))

	sub, err := c.Finish(ctx)
	require.NotNil(t, sub)
	assert.ErrorIs(t, err, auth.ErrNoUser)
	assert.True(t, gateway.IsPersistFailure(err))
	assert.True(t, e.IsComplete())
	assert.Empty(t, gw.SavedResults())

	snap, _ := c.Analytics().Snapshot(ctx)
	assert.Len(t, snap.Trend, 1, "analytics still update without a user")
	require.Len(t, rec.calls, 1)
	assert.Error(t, rec.calls[0].err)
}

func TestFinish_SaveFailure(t *testing.T) {
	gw := testGateway()
	gw.SaveErr = errors.New("backend down")
	c := New(Deps{Gateway: gw, Progress: progress.New(gw, nil), Auth: loggedIn(t)})
	ctx := context.Background()

	_, err := c.Start(ctx, testConfig())
	require.NoError(t, err)

	_, err = c.Finish(ctx)
	assert.True(t, gateway.IsPersistFailure(err))
	assert.True(t, gateway.IsPersistFailure(c.Err()))
	assert.True(t, c.Session().IsComplete())
}

func TestFinish_NoSession(t *testing.T) {
	c := New(Deps{Gateway: testGateway()})
	_, err := c.Finish(context.Background())
	assert.ErrorIs(t, err, session.ErrNotLoaded)
}

func TestTimerExpiryCommitsOnce(t *testing.T) {
	gw := testGateway()
	c := New(Deps{Gateway: gw, Auth: loggedIn(t)})
	ctx := context.Background()

	cfg := testConfig()
	e, err := c.Start(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, e.Tick(0))

	done, err := e.Countdown(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	_, err = c.Finish(ctx)
	require.NoError(t, err)
	assert.Len(t, gw.SavedResults(), 1)
	assert.Equal(t, cfg.Duration, e.Submission().TimeTaken)
}
