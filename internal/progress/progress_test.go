package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practest/internal/gateway"
	"github.com/abhisek/practest/internal/quiz"
)

func newFake() *gateway.Fake {
	return &gateway.Fake{TopicList: map[string][]quiz.Topic{
		"physics": {
			{ID: "mech", Name: "Mechanics", Subject: "physics", TotalQuestions: 2, CompletedQuestions: 1},
			{ID: "opt", Name: "Optics", Subject: "physics", TotalQuestions: 4},
		},
		"chemistry": {
			{ID: "org", Name: "Organic", TotalQuestions: 3, CompletedQuestions: 9},
		},
	}}
}

func TestFetch_ReplacesPerSubject(t *testing.T) {
	gw := newFake()
	s := New(gw, nil)
	ctx := context.Background()

	require.NoError(t, s.Fetch(ctx, "physics"))
	require.NoError(t, s.Fetch(ctx, "chemistry"))
	assert.Len(t, s.Topics(), 3)

	gw.TopicList["physics"] = gw.TopicList["physics"][:1]
	require.NoError(t, s.Fetch(ctx, "physics"))
	assert.Len(t, s.TopicsFor("physics"), 1)
	assert.Len(t, s.TopicsFor("chemistry"), 1)

	org := s.TopicsFor("chemistry")[0]
	assert.Equal(t, "chemistry", org.Subject)
	assert.Equal(t, 3, org.CompletedQuestions, "completed is bounded by total")
}

func TestFetch_FailureLeavesState(t *testing.T) {
	gw := newFake()
	s := New(gw, nil)
	require.NoError(t, s.Fetch(context.Background(), "physics"))

	gw.TopicsErr = errors.New("offline")
	err := s.Fetch(context.Background(), "physics")
	assert.True(t, gateway.IsFetchFailure(err))
	assert.Error(t, s.Err())
	assert.False(t, s.Loading())
	assert.Len(t, s.TopicsFor("physics"), 2)
}

func TestUpdateProgress(t *testing.T) {
	gw := newFake()
	s := New(gw, nil)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, "physics"))

	require.NoError(t, s.UpdateProgress(ctx, "u1", "mech", true))
	mech, _ := s.Lookup("mech")
	assert.Equal(t, 2, mech.CompletedQuestions)
	assert.InDelta(t, 100.0, s.Percent("mech"), 1e-9)

	require.NoError(t, s.UpdateProgress(ctx, "u1", "mech", true))
	mech, _ = s.Lookup("Mechanics")
	assert.Equal(t, 2, mech.CompletedQuestions, "never exceeds total")

	require.NoError(t, s.UpdateProgress(ctx, "u1", "opt", false))
	opt, _ := s.Lookup("opt")
	assert.Equal(t, 0, opt.CompletedQuestions)

	assert.Equal(t, []gateway.ProgressCall{
		{UserID: "u1", TopicID: "mech", Completed: true},
		{UserID: "u1", TopicID: "mech", Completed: true},
		{UserID: "u1", TopicID: "opt", Completed: false},
	}, gw.Progress())
}

func TestUpdateProgress_UnknownTopic(t *testing.T) {
	gw := newFake()
	s := New(gw, nil)

	err := s.UpdateProgress(context.Background(), "u1", "nope", true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, gw.Progress())
}

func TestUpdateProgress_PersistFailure(t *testing.T) {
	gw := newFake()
	s := New(gw, nil)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, "physics"))

	gw.ProgressErr = errors.New("offline")
	err := s.UpdateProgress(ctx, "u1", "opt", true)
	assert.True(t, gateway.IsPersistFailure(err))
	opt, _ := s.Lookup("opt")
	assert.Equal(t, 0, opt.CompletedQuestions)
}

func TestPercent_ZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, Percent(quiz.Topic{}))
	assert.Equal(t, 0.0, New(newFake(), nil).Percent("missing"))
}
