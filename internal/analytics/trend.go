package analytics

import (
	"context"
	"sync"
	"time"
)

// TrendPoint is the overall score of one attempt.
type TrendPoint struct {
	Date  time.Time
	Score float64
}

// TrendLog is an append-only history of attempt scores.
type TrendLog interface {
	Append(ctx context.Context, p TrendPoint) error
	Load(ctx context.Context) ([]TrendPoint, error)
}

// MemoryTrendLog keeps the trend for the lifetime of the process.
type MemoryTrendLog struct {
	mu     sync.Mutex
	points []TrendPoint
}

// NewMemoryTrendLog returns an empty in-memory trend log.
func NewMemoryTrendLog() *MemoryTrendLog {
	return &MemoryTrendLog{}
}

func (m *MemoryTrendLog) Append(_ context.Context, p TrendPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, p)
	return nil
}

func (m *MemoryTrendLog) Load(_ context.Context) ([]TrendPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TrendPoint(nil), m.points...), nil
}
