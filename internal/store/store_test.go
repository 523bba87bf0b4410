package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practest/internal/analytics"
	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}
	for _, tt := range tests {
		var got string
		if err := s.DB().QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestTrendRepo_AppendLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ada := s.TrendRepo("ada")
	bob := s.TrendRepo("bob")

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, ada.Append(ctx, analytics.TrendPoint{Date: base.Add(time.Hour), Score: 80}))
	require.NoError(t, ada.Append(ctx, analytics.TrendPoint{Date: base, Score: 60}))
	require.NoError(t, bob.Append(ctx, analytics.TrendPoint{Date: base, Score: 10}))

	got, err := ada.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 60.0, got[0].Score)
	assert.Equal(t, 80.0, got[1].Score)
	assert.True(t, got[0].Date.Equal(base))

	n, err := ada.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err = bob.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTrendRepo_DrivesAnalytics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.TrendRepo("ada")
	require.NoError(t, repo.Append(ctx, analytics.TrendPoint{Date: time.Now(), Score: 60}))
	require.NoError(t, repo.Append(ctx, analytics.TrendPoint{Date: time.Now(), Score: 80}))

	e := analytics.New(analytics.WithTrendLog(repo))
	require.NoError(t, e.Refresh(ctx))
	assert.Equal(t, 100.0, e.Prediction().PredictedScore)
}

func TestCurrentUserTrend(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	users := auth.NewStub()
	trend := s.CurrentUserTrend(users)

	got, err := trend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.ErrorIs(t, trend.Append(ctx, analytics.TrendPoint{Date: time.Now(), Score: 40}), auth.ErrNoUser)

	ada, err := users.Login("ada@example.com")
	require.NoError(t, err)
	require.NoError(t, trend.Append(ctx, analytics.TrendPoint{Date: time.Now(), Score: 40}))

	users.Logout()
	_, err = users.Login("bob@example.com")
	require.NoError(t, err)
	got, err = trend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "trend is per user")

	got, err = s.TrendRepo(ada.ID).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAttemptRepo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.AttemptRepo()

	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	sub := &session.Submission{
		AttemptID: "a1",
		Subject:   "physics",
		Questions: []quiz.TestQuestion{
			{Question: quiz.Question{CorrectAnswer: "a"}, IsAttempted: true, SelectedAnswer: "a"},
			{Question: quiz.Question{CorrectAnswer: "a"}},
		},
		Score:       50,
		Duration:    600,
		TimeTaken:   120,
		CompletedAt: at,
	}
	require.NoError(t, repo.Record(ctx, "ada", sub, nil))

	sub2 := *sub
	sub2.AttemptID = "a2"
	sub2.CompletedAt = at.Add(time.Hour)
	require.NoError(t, repo.Record(ctx, "ada", &sub2, errors.New("backend down")))

	recs, err := repo.Recent(ctx, "ada", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a2", recs[0].AttemptID)
	assert.Equal(t, "backend down", recs[0].CommitError)
	assert.Equal(t, 1, recs[1].Correct)
	assert.Equal(t, 2, recs[1].Total)
	assert.True(t, recs[1].CompletedAt.Equal(at))

	recs, err = repo.Recent(ctx, "ada", 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	n, err := repo.Clear(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
