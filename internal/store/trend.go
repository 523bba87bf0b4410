package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abhisek/practest/internal/analytics"
	"github.com/abhisek/practest/internal/auth"
)

// TrendRepo is an append-only trend log for one user.
type TrendRepo struct {
	db     *sqlx.DB
	userID string
}

var _ analytics.TrendLog = (*TrendRepo)(nil)

type trendRow struct {
	RecordedAt int64   `db:"recorded_at"`
	Score      float64 `db:"score"`
}

func (r *TrendRepo) Append(ctx context.Context, p analytics.TrendPoint) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trend_points (user_id, recorded_at, score) VALUES (?, ?, ?)`,
		r.userID, p.Date.UnixMilli(), p.Score)
	if err != nil {
		return fmt.Errorf("append trend point: %w", err)
	}
	return nil
}

func (r *TrendRepo) Load(ctx context.Context) ([]analytics.TrendPoint, error) {
	var rows []trendRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT recorded_at, score FROM trend_points WHERE user_id = ? ORDER BY recorded_at, id`,
		r.userID)
	if err != nil {
		return nil, fmt.Errorf("load trend: %w", err)
	}
	out := make([]analytics.TrendPoint, len(rows))
	for i, row := range rows {
		out[i] = analytics.TrendPoint{Date: time.UnixMilli(row.RecordedAt), Score: row.Score}
	}
	return out, nil
}

// Clear deletes the user's trend.
func (r *TrendRepo) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trend_points WHERE user_id = ?`, r.userID)
	if err != nil {
		return 0, fmt.Errorf("clear trend: %w", err)
	}
	return res.RowsAffected()
}

// CurrentUserTrend routes to the TrendRepo of whoever is signed in. Without a
// user, Load returns an empty trend and Append fails with auth.ErrNoUser.
type CurrentUserTrend struct {
	store *Store
	users auth.CurrentUserer
}

var _ analytics.TrendLog = (*CurrentUserTrend)(nil)

func (c *CurrentUserTrend) Append(ctx context.Context, p analytics.TrendPoint) error {
	u, ok := c.users.CurrentUser()
	if !ok {
		return auth.ErrNoUser
	}
	return c.store.TrendRepo(u.ID).Append(ctx, p)
}

func (c *CurrentUserTrend) Load(ctx context.Context) ([]analytics.TrendPoint, error) {
	u, ok := c.users.CurrentUser()
	if !ok {
		return nil, nil
	}
	return c.store.TrendRepo(u.ID).Load(ctx)
}
