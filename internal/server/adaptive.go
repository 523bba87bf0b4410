package server

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/abhisek/practest/internal/questiongen"
	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/server/repo"
)

// defaultAccuracy is assumed for topics without history.
const defaultAccuracy = 0.7

// Mix is the share of each difficulty in a topic's quota.
type Mix map[quiz.Difficulty]float64

// DifficultyMix returns the difficulty shares for a topic accuracy in [0, 1].
// Weak topics lean easy and strong topics lean hard.
func DifficultyMix(accuracy float64) Mix {
	switch {
	case accuracy < 0.4:
		return Mix{quiz.DifficultyEasy: 0.6, quiz.DifficultyMedium: 0.3, quiz.DifficultyHard: 0.1}
	case accuracy < 0.7:
		return Mix{quiz.DifficultyEasy: 0.3, quiz.DifficultyMedium: 0.4, quiz.DifficultyHard: 0.3}
	default:
		return Mix{quiz.DifficultyEasy: 0.1, quiz.DifficultyMedium: 0.3, quiz.DifficultyHard: 0.6}
	}
}

// TopicAccuracies folds the per-topic tallies of results into accuracies.
func TopicAccuracies(results []repo.Result) map[string]float64 {
	type tally struct{ correct, total int }
	sums := map[string]*tally{}
	for _, r := range results {
		for topic, p := range r.TopicPerformance {
			t := sums[topic]
			if t == nil {
				t = &tally{}
				sums[topic] = t
			}
			t.correct += p.Correct
			t.total += p.Total
		}
	}
	out := make(map[string]float64, len(sums))
	for topic, t := range sums {
		if t.total > 0 {
			out[topic] = float64(t.correct) / float64(t.total)
		}
	}
	return out
}

// TopicPerformance tallies correct answers per topic.
func TopicPerformance(qs []quiz.TestQuestion) map[string]repo.TopicPerformance {
	out := map[string]repo.TopicPerformance{}
	for _, q := range qs {
		p := out[q.Topic]
		p.Total++
		if q.IsCorrect() {
			p.Correct++
		}
		p.Accuracy = float64(p.Correct) / float64(p.Total)
		out[q.Topic] = p
	}
	return out
}

// picker assembles one test without repeating a question.
type picker struct {
	rnd  *rand.Rand
	used map[string]bool
	out  []quiz.Question
}

// take moves up to n random unused questions from pool into the test and
// returns how many it took.
func (p *picker) take(pool []quiz.Question, n int) int {
	var free []quiz.Question
	for _, q := range pool {
		if !p.used[q.ID] {
			free = append(free, q)
		}
	}
	p.rnd.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	if n > len(free) {
		n = len(free)
	}
	for _, q := range free[:n] {
		p.used[q.ID] = true
		p.out = append(p.out, q)
	}
	return n
}

// buildTest selects questions for cfg, adapting each topic's difficulty mix
// to the user's history. Shortfalls are filled from the remaining bank and
// then, when a generator is configured, by authoring new questions.
func (s *Server) buildTest(ctx context.Context, cfg quiz.TestConfig, userID string) ([]quiz.Question, error) {
	accuracy := map[string]float64{}
	if userID != "" {
		history, err := s.repo.Results(ctx, userID, 0)
		if err != nil {
			return nil, err
		}
		accuracy = TopicAccuracies(history)
	}

	p := &picker{rnd: s.rnd(), used: map[string]bool{}}
	quota := cfg.QuestionCount / len(cfg.Topics)
	if quota == 0 {
		quota = 1
	}

	pools := make(map[string][]quiz.Question, len(cfg.Topics))
	for _, topic := range cfg.Topics {
		pool, err := s.repo.Questions(ctx, repo.QuestionFilter{
			Subject: cfg.Subject,
			Topic:   topic,
			Types:   cfg.QuestionTypes,
		})
		if err != nil {
			return nil, err
		}
		pools[topic] = pool

		acc, ok := accuracy[topic]
		if !ok {
			acc = defaultAccuracy
		}
		mix := DifficultyMix(acc)
		s.logger.Debug("topic mix", "topic", topic, "accuracy", acc, "mix", mix.String())
		for _, d := range quiz.Difficulties {
			if !cfg.HasDifficulty(d) {
				continue
			}
			want := int(float64(quota) * mix[d])
			p.take(byDifficulty(pool, d), want)
		}
	}

	if short := cfg.QuestionCount - len(p.out); short > 0 {
		for _, topic := range cfg.Topics {
			short -= p.take(allowed(pools[topic], cfg), short)
		}
	}
	if short := cfg.QuestionCount - len(p.out); short > 0 && s.generator != nil {
		s.generate(ctx, cfg, p, short)
	}

	p.rnd.Shuffle(len(p.out), func(i, j int) { p.out[i], p.out[j] = p.out[j], p.out[i] })
	if len(p.out) > cfg.QuestionCount {
		p.out = p.out[:cfg.QuestionCount]
	}
	return p.out, nil
}

// generate authors up to n questions round-robin over the requested topics,
// difficulties and types, storing each accepted one in the bank. Failures
// are logged and skipped so a partial test can still be served.
func (s *Server) generate(ctx context.Context, cfg quiz.TestConfig, p *picker, n int) {
	prior := make(map[string][]string, len(cfg.Topics))
	for _, q := range p.out {
		prior[q.Topic] = append(prior[q.Topic], q.Text)
	}

	var made []quiz.Question
	attempts := n * 2
	for i := 0; len(made) < n && i < attempts; i++ {
		in := questiongen.Input{
			Subject:    cfg.Subject,
			Topic:      cfg.Topics[i%len(cfg.Topics)],
			Difficulty: cfg.Difficulty[i%len(cfg.Difficulty)],
			Type:       cfg.QuestionTypes[i%len(cfg.QuestionTypes)],
		}
		in.Prior = prior[in.Topic]

		q, err := s.generator.Generate(ctx, in)
		if err != nil {
			s.logger.Warn("question generation failed",
				"subject", in.Subject, "topic", in.Topic, "difficulty", in.Difficulty, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		prior[in.Topic] = append(prior[in.Topic], q.Text)
		made = append(made, *q)
	}
	if len(made) == 0 {
		return
	}
	if err := s.repo.AddQuestions(ctx, made); err != nil {
		s.logger.Warn("store generated questions failed", "count", len(made), "error", err)
	}
	for _, q := range made {
		p.used[q.ID] = true
		p.out = append(p.out, q)
	}
	s.logger.Info("generated questions", "subject", cfg.Subject, "count", len(made))
}

func byDifficulty(pool []quiz.Question, d quiz.Difficulty) []quiz.Question {
	var out []quiz.Question
	for _, q := range pool {
		if q.Difficulty == d {
			out = append(out, q)
		}
	}
	return out
}

func allowed(pool []quiz.Question, cfg quiz.TestConfig) []quiz.Question {
	var out []quiz.Question
	for _, q := range pool {
		if cfg.HasDifficulty(q.Difficulty) {
			out = append(out, q)
		}
	}
	return out
}

func (m Mix) String() string {
	return fmt.Sprintf("easy=%.1f medium=%.1f hard=%.1f",
		m[quiz.DifficultyEasy], m[quiz.DifficultyMedium], m[quiz.DifficultyHard])
}
