// Package store keeps the client's attempt history in a local SQLite file.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/abhisek/practest/internal/auth"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trend_points (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT    NOT NULL,
	recorded_at INTEGER NOT NULL,
	score       REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trend_user_time ON trend_points(user_id, recorded_at);

CREATE TABLE IF NOT EXISTS attempts (
	attempt_id   TEXT PRIMARY KEY,
	user_id      TEXT    NOT NULL,
	subject      TEXT    NOT NULL,
	score        REAL    NOT NULL,
	correct      INTEGER NOT NULL,
	total        INTEGER NOT NULL,
	duration     INTEGER NOT NULL,
	time_taken   INTEGER NOT NULL,
	completed_at INTEGER NOT NULL,
	commit_error TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_attempts_user_time ON attempts(user_id, completed_at);
`

// Store wraps the SQLite connection.
type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at dsn, applies pragmas and creates
// the schema.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying connection for raw queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// TrendRepo returns the trend log of userID.
func (s *Store) TrendRepo(userID string) *TrendRepo {
	return &TrendRepo{db: s.db, userID: userID}
}

// CurrentUserTrend returns a trend log that follows the signed-in user.
func (s *Store) CurrentUserTrend(users auth.CurrentUserer) *CurrentUserTrend {
	return &CurrentUserTrend{store: s, users: users}
}

// AttemptRepo returns the attempt history repository.
func (s *Store) AttemptRepo() *AttemptRepo {
	return &AttemptRepo{db: s.db}
}

// applyPragmas configures SQLite for single-user use.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. PRACTEST_DB environment variable
// 2. $XDG_DATA_HOME/practest/practest.db
// 3. ~/.local/share/practest/practest.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PRACTEST_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "practest", "practest.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
