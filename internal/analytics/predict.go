package analytics

import "github.com/abhisek/practest/internal/quiz"

// predict extrapolates the next score from the last two trend scores and
// maps the average score to a recommended difficulty.
func predict(history []float64, weaknesses []string) Prediction {
	avg := Average(history)

	predicted := avg
	if n := len(history); n >= 2 {
		last, prev := history[n-1], history[n-2]
		predicted = clamp(last+(last-prev), 0, 100)
	}

	return Prediction{
		PredictedScore:        predicted,
		RecommendedDifficulty: RecommendDifficulty(avg),
		RecommendedTopics:     append([]string(nil), weaknesses...),
		EstimatedStudyHours:   StudyHoursPerWeakTopic * len(weaknesses),
	}
}

// Predict computes a prediction for the given score history and weak topics.
func Predict(history []float64, weaknesses []string) Prediction {
	return predict(history, weaknesses)
}

// Average returns the mean of scores, 0 when empty.
func Average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// RecommendDifficulty maps an average score to the next difficulty.
func RecommendDifficulty(avg float64) quiz.Difficulty {
	switch {
	case avg < easyBelow:
		return quiz.DifficultyEasy
	case avg < mediumBelow:
		return quiz.DifficultyMedium
	default:
		return quiz.DifficultyHard
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
