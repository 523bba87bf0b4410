// Package quiz defines the shared domain types for subjects, topics,
// questions and test configuration.
package quiz

// Difficulty is the difficulty level of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every difficulty in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// QuestionType is the kind of answer a question expects.
type QuestionType string

const (
	TypeObjective  QuestionType = "objective"
	TypeSubjective QuestionType = "subjective"
)

// QuestionTypes lists every question type.
var QuestionTypes = []QuestionType{TypeObjective, TypeSubjective}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	return t == TypeObjective || t == TypeSubjective
}

// Subject is a top-level area of study.
type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Topic is a subdivision of a subject with completion counters.
type Topic struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Subject            string `json:"subject"`
	TotalQuestions     int    `json:"totalQuestions"`
	CompletedQuestions int    `json:"completedQuestions"`
}

// Option is one choice of an objective question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is immutable question content as served by the backend.
type Question struct {
	ID            string       `json:"id"`
	Subject       string       `json:"subject"`
	Topic         string       `json:"topic"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"question"`
	Options       []Option     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer"`
	Explanation   string       `json:"explanation"`
	Difficulty    Difficulty   `json:"difficulty"`
}

// Option returns the option with the given id.
func (q Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// TestQuestion is a Question carrying the learner's state for one attempt.
// IsAttempted is true iff SelectedAnswer is non-empty.
type TestQuestion struct {
	Question
	IsAttempted    bool   `json:"isAttempted"`
	IsBookmarked   bool   `json:"isBookmarked"`
	SelectedAnswer string `json:"selectedAnswer,omitempty"`
}

// NewTestQuestion wraps q with fresh, unanswered state.
func NewTestQuestion(q Question) TestQuestion {
	return TestQuestion{Question: q}
}

// IsCorrect compares the selected answer against the correct answer by
// strict string equality. Subjective answers are not graded beyond this.
func (tq TestQuestion) IsCorrect() bool {
	return tq.IsAttempted && tq.SelectedAnswer == tq.CorrectAnswer
}

// User is the authenticated learner.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Score returns the percentage of correct answers in qs, 0 for an empty set.
func Score(qs []TestQuestion) float64 {
	if len(qs) == 0 {
		return 0
	}
	correct := 0
	for _, q := range qs {
		if q.IsCorrect() {
			correct++
		}
	}
	return float64(correct) / float64(len(qs)) * 100
}
