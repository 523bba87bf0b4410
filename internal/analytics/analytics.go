// Package analytics reduces completed attempts into per-topic performance,
// a score trend and a heuristic prediction of the next result.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/practest/internal/quiz"
)

// Thresholds on per-topic and average scores (percent).
const (
	StrengthThreshold = 70.0
	WeaknessThreshold = 50.0

	easyBelow   = 50.0
	mediumBelow = 75.0

	// StudyHoursPerWeakTopic is the recommended study time per weak topic.
	StudyHoursPerWeakTopic = 2
)

// TopicStat counts answers for one topic.
type TopicStat struct {
	Topic   string
	Total   int
	Correct int
}

// Score returns the topic accuracy in percent, 0 when there are no questions.
func (s TopicStat) Score() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total) * 100
}

// DifficultyCount is the number of questions at one difficulty.
type DifficultyCount struct {
	Difficulty quiz.Difficulty
	Count      int
}

// Prediction is the heuristic outlook for the next attempt.
type Prediction struct {
	PredictedScore        float64
	RecommendedDifficulty quiz.Difficulty
	RecommendedTopics     []string
	EstimatedStudyHours   int
}

// Snapshot is an immutable copy of the engine's derived state.
type Snapshot struct {
	TopicPerformance       []TopicStat
	DifficultyDistribution []DifficultyCount
	AverageTimePerQuestion float64
	Strengths              []string
	Weaknesses             []string
	Trend                  []TrendPoint
	Prediction             Prediction
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now for trend dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTrendLog sets the collaborator that stores trend points.
func WithTrendLog(l TrendLog) Option {
	return func(e *Engine) { e.trend = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine holds the analytics of the latest attempt and the trend history.
type Engine struct {
	mu sync.Mutex

	topics       []TopicStat
	difficulties []DifficultyCount
	avgTime      float64
	strengths    []string
	weaknesses   []string
	prediction   Prediction

	trend  TrendLog
	now    func() time.Time
	logger *slog.Logger
}

// New creates an engine with an in-memory trend unless WithTrendLog is given.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.trend == nil {
		e.trend = NewMemoryTrendLog()
	}
	e.prediction = predict(nil, nil)
	return e
}

// Update recomputes analytics from a settled question set and the seconds
// spent on it, appends the attempt score to the trend and refreshes the
// prediction. A trend log failure is returned after the in-memory state has
// been updated.
func (e *Engine) Update(ctx context.Context, questions []quiz.TestQuestion, timeSpent int) error {
	topics := topicPerformance(questions)
	strengths, weaknesses := classify(topics)

	var avg float64
	if len(questions) > 0 {
		avg = float64(timeSpent) / float64(len(questions))
	}

	point := TrendPoint{Date: e.now(), Score: quiz.Score(questions)}
	appendErr := e.trend.Append(ctx, point)
	if appendErr != nil {
		e.logger.Warn("trend append failed", "error", appendErr)
	}

	history, err := e.trend.Load(ctx)
	if err != nil {
		e.logger.Warn("trend load failed", "error", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.topics = topics
	e.difficulties = difficultyDistribution(questions)
	e.avgTime = avg
	e.strengths = strengths
	e.weaknesses = weaknesses
	e.prediction = predict(scores(history), weaknesses)

	e.logger.Debug("analytics updated",
		"score", point.Score,
		"topics", len(topics),
		"weaknesses", len(weaknesses),
		"predicted", e.prediction.PredictedScore)

	if appendErr != nil {
		return appendErr
	}
	return err
}

// Refresh recomputes the prediction from the stored trend without a new attempt.
func (e *Engine) Refresh(ctx context.Context) error {
	history, err := e.trend.Load(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prediction = predict(scores(history), e.weaknesses)
	return nil
}

// Prediction returns the current prediction.
func (e *Engine) Prediction() Prediction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clonePrediction(e.prediction)
}

// TopicScores returns per-topic accuracy in first-appearance order.
func (e *Engine) TopicScores() []TopicScore {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]TopicScore, len(e.topics))
	for i, t := range e.topics {
		out[i] = TopicScore{Topic: t.Topic, Score: t.Score()}
	}
	return out
}

// TopicScore is a topic with its accuracy in percent.
type TopicScore struct {
	Topic string
	Score float64
}

// Snapshot returns a copy of all derived state.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	history, err := e.trend.Load(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		TopicPerformance:       append([]TopicStat(nil), e.topics...),
		DifficultyDistribution: append([]DifficultyCount(nil), e.difficulties...),
		AverageTimePerQuestion: e.avgTime,
		Strengths:              append([]string(nil), e.strengths...),
		Weaknesses:             append([]string(nil), e.weaknesses...),
		Trend:                  history,
		Prediction:             clonePrediction(e.prediction),
	}, err
}

func topicPerformance(questions []quiz.TestQuestion) []TopicStat {
	var stats []TopicStat
	index := make(map[string]int)
	for _, q := range questions {
		i, ok := index[q.Topic]
		if !ok {
			i = len(stats)
			index[q.Topic] = i
			stats = append(stats, TopicStat{Topic: q.Topic})
		}
		stats[i].Total++
		if q.IsCorrect() {
			stats[i].Correct++
		}
	}
	return stats
}

func difficultyDistribution(questions []quiz.TestQuestion) []DifficultyCount {
	var counts []DifficultyCount
	index := make(map[quiz.Difficulty]int)
	for _, q := range questions {
		i, ok := index[q.Difficulty]
		if !ok {
			i = len(counts)
			index[q.Difficulty] = i
			counts = append(counts, DifficultyCount{Difficulty: q.Difficulty})
		}
		counts[i].Count++
	}
	return counts
}

// classify splits topics into strengths (>= 70%) and weaknesses (< 50%).
// Topics in between belong to neither.
func classify(topics []TopicStat) (strengths, weaknesses []string) {
	for _, t := range topics {
		s := t.Score()
		switch {
		case s >= StrengthThreshold:
			strengths = append(strengths, t.Topic)
		case s < WeaknessThreshold:
			weaknesses = append(weaknesses, t.Topic)
		}
	}
	return strengths, weaknesses
}

func scores(points []TrendPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Score
	}
	return out
}

func clonePrediction(p Prediction) Prediction {
	p.RecommendedTopics = append([]string(nil), p.RecommendedTopics...)
	return p
}
