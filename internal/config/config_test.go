package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClient_Defaults(t *testing.T) {
	t.Setenv("PRACTEST_SERVER_URL", "")
	t.Setenv("PRACTEST_HTTP_TIMEOUT", "")
	t.Setenv("PRACTEST_PERSIST_TREND", "")
	t.Setenv("PRACTEST_LOG_FORMAT", "")

	c, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.ServerURL)
	assert.Equal(t, 15*time.Second, c.HTTPTimeout)
	assert.False(t, c.PersistTrend)
	assert.Equal(t, "text", c.Log.Format)
}

func TestLoadClient_Overrides(t *testing.T) {
	t.Setenv("PRACTEST_SERVER_URL", "http://quiz.test")
	t.Setenv("PRACTEST_HTTP_TIMEOUT", "2s")
	t.Setenv("PRACTEST_PERSIST_TREND", "true")

	c, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://quiz.test", c.ServerURL)
	assert.Equal(t, 2*time.Second, c.HTTPTimeout)
	assert.True(t, c.PersistTrend)
}

func TestLoadClient_BadValues(t *testing.T) {
	t.Setenv("PRACTEST_HTTP_TIMEOUT", "soon")
	_, err := LoadClient()
	assert.Error(t, err)

	t.Setenv("PRACTEST_HTTP_TIMEOUT", "")
	t.Setenv("PRACTEST_PERSIST_TREND", "maybe")
	_, err = LoadClient()
	assert.Error(t, err)
}

func TestLoadServer(t *testing.T) {
	t.Setenv("PRACTEST_STORE", "")
	t.Setenv("PRACTEST_CORS_ORIGINS", "http://a.test, http://b.test,")

	s, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, ":8000", s.Addr)
	assert.Equal(t, "sqlite", s.Store)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, s.CORSOrigins)
	assert.Equal(t, "json", s.Log.Format)

	t.Setenv("PRACTEST_STORE", "postgres")
	_, err = LoadServer()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PRACTEST_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("PRACTEST_TEST_DOTENV", "")
	os.Unsetenv("PRACTEST_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("PRACTEST_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
