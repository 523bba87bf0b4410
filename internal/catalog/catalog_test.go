package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practest/internal/gateway"
	"github.com/abhisek/practest/internal/quiz"
)

func TestFetch(t *testing.T) {
	gw := &gateway.Fake{SubjectList: []quiz.Subject{{ID: "physics", Name: "Physics"}}}
	s := New(gw, nil)

	require.NoError(t, s.Fetch(context.Background()))
	assert.False(t, s.Loading())
	assert.NoError(t, s.Err())
	assert.Len(t, s.Subjects(), 1)

	sub, ok := s.Lookup("physics")
	assert.True(t, ok)
	assert.Equal(t, "Physics", sub.Name)
}

func TestFetch_FailureKeepsPrevious(t *testing.T) {
	gw := &gateway.Fake{SubjectList: []quiz.Subject{{ID: "physics", Name: "Physics"}}}
	s := New(gw, nil)
	require.NoError(t, s.Fetch(context.Background()))

	gw.SubjectsErr = errors.New("offline")
	err := s.Fetch(context.Background())
	assert.True(t, gateway.IsFetchFailure(err))
	assert.True(t, gateway.IsFetchFailure(s.Err()))
	assert.False(t, s.Loading())
	assert.Len(t, s.Subjects(), 1)
}
