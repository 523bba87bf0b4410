package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abhisek/practest/internal/session"
)

// AttemptRecord is one completed attempt in the local history.
type AttemptRecord struct {
	AttemptID   string    `db:"attempt_id"`
	UserID      string    `db:"user_id"`
	Subject     string    `db:"subject"`
	Score       float64   `db:"score"`
	Correct     int       `db:"correct"`
	Total       int       `db:"total"`
	Duration    int       `db:"duration"`
	TimeTaken   int       `db:"time_taken"`
	CompletedAt time.Time `db:"-"`
	CommitError string    `db:"commit_error"`

	CompletedAtMs int64 `db:"completed_at"`
}

// AttemptRepo stores attempt summaries.
type AttemptRepo struct {
	db *sqlx.DB
}

// Record saves the summary of sub for userID. commitErr is the persistence
// failure of the attempt, if any.
func (r *AttemptRepo) Record(ctx context.Context, userID string, sub *session.Submission, commitErr error) error {
	rec := AttemptRecord{
		AttemptID:     sub.AttemptID,
		UserID:        userID,
		Subject:       sub.Subject,
		Score:         sub.Score,
		Correct:       sub.Correct(),
		Total:         len(sub.Questions),
		Duration:      sub.Duration,
		TimeTaken:     sub.TimeTaken,
		CompletedAtMs: sub.CompletedAt.UnixMilli(),
	}
	if commitErr != nil {
		rec.CommitError = commitErr.Error()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO attempts
			(attempt_id, user_id, subject, score, correct, total, duration, time_taken, completed_at, commit_error)
		VALUES
			(:attempt_id, :user_id, :subject, :score, :correct, :total, :duration, :time_taken, :completed_at, :commit_error)`,
		rec)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Recent returns up to limit attempts of userID, newest first. A limit of 0
// returns all.
func (r *AttemptRepo) Recent(ctx context.Context, userID string, limit int) ([]AttemptRecord, error) {
	q := `SELECT * FROM attempts WHERE user_id = ? ORDER BY completed_at DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	var recs []AttemptRecord
	if err := r.db.SelectContext(ctx, &recs, q, args...); err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	for i := range recs {
		recs[i].CompletedAt = time.UnixMilli(recs[i].CompletedAtMs)
	}
	return recs, nil
}

// Clear deletes the attempt history of userID.
func (r *AttemptRepo) Clear(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attempts WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear attempts: %w", err)
	}
	return res.RowsAffected()
}
