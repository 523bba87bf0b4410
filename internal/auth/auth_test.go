package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	s := NewStub()
	_, ok := s.CurrentUser()
	assert.False(t, ok)

	u, err := s.Login("  Ada@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEmpty(t, u.ID)

	cur, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, u, cur)

	again, err := NewStub().Login("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
}

func TestLogin_Invalid(t *testing.T) {
	for _, email := range []string{"", "ada", "@example.com", "ada@"} {
		_, err := NewStub().Login(email)
		assert.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
	}
}

func TestLogout(t *testing.T) {
	s := NewStub()
	_, err := s.Login("ada@example.com")
	require.NoError(t, err)
	s.Logout()
	_, ok := s.CurrentUser()
	assert.False(t, ok)
}

func TestUserFor(t *testing.T) {
	u, err := UserFor("Grace@Example.com")
	require.NoError(t, err)

	logged, err := NewStub().Login("grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, logged, u)

	_, err = UserFor("grace")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}
