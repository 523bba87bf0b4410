package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/practest/internal/quiz"
)

// Validator checks a generated question. Implementations are stateless.
type Validator interface {
	Name() string
	Validate(q *quiz.Question, raw Output, in Input) *ValidationError
}

// ValidationError describes why a question was rejected.
type ValidationError struct {
	Validator string
	Message   string
	Retryable bool // whether regenerating is likely to help
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

const (
	maxQuestionLen    = 600
	maxExplanationLen = 1200
)

// StructuralValidator checks text lengths and the requested enums.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *quiz.Question, _ Output, in Input) *ValidationError {
	fail := func(msg string, retry bool) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: msg, Retryable: retry}
	}
	switch {
	case strings.TrimSpace(q.Text) == "":
		return fail("question is empty", true)
	case len(q.Text) > maxQuestionLen:
		return fail(fmt.Sprintf("question exceeds %d characters", maxQuestionLen), true)
	case strings.TrimSpace(q.Explanation) == "":
		return fail("explanation is empty", true)
	case len(q.Explanation) > maxExplanationLen:
		return fail(fmt.Sprintf("explanation exceeds %d characters", maxExplanationLen), true)
	case !in.Difficulty.Valid():
		return fail(fmt.Sprintf("unknown difficulty %q", in.Difficulty), false)
	case !in.Type.Valid():
		return fail(fmt.Sprintf("unknown question type %q", in.Type), false)
	}
	return nil
}

// ObjectiveValidator checks options of objective questions.
type ObjectiveValidator struct{}

func (v *ObjectiveValidator) Name() string { return "objective" }

func (v *ObjectiveValidator) Validate(q *quiz.Question, raw Output, _ Input) *ValidationError {
	if q.Type != quiz.TypeObjective {
		return nil
	}
	fail := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: msg, Retryable: true}
	}
	if len(raw.Options) < 2 || len(raw.Options) > len(optionIDs) {
		return fail(fmt.Sprintf("want 2-%d options, got %d", len(optionIDs), len(raw.Options)))
	}
	seen := make(map[string]bool, len(raw.Options))
	for _, o := range raw.Options {
		key := strings.ToLower(strings.TrimSpace(o))
		if key == "" {
			return fail("empty option")
		}
		if seen[key] {
			return fail(fmt.Sprintf("duplicate option %q", o))
		}
		seen[key] = true
	}
	if _, ok := q.Option(q.CorrectAnswer); !ok {
		return fail(fmt.Sprintf("correct_option %d is not an option index", raw.CorrectOption))
	}
	return nil
}

// SubjectiveValidator checks that subjective questions carry a model answer
// and no options.
type SubjectiveValidator struct{}

func (v *SubjectiveValidator) Name() string { return "subjective" }

func (v *SubjectiveValidator) Validate(q *quiz.Question, raw Output, _ Input) *ValidationError {
	if q.Type != quiz.TypeSubjective {
		return nil
	}
	if len(raw.Options) > 0 {
		return &ValidationError{Validator: v.Name(), Message: "subjective question has options", Retryable: true}
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return &ValidationError{Validator: v.Name(), Message: "answer is empty", Retryable: true}
	}
	return nil
}

// DuplicateValidator rejects questions whose text matches a prior question.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(q *quiz.Question, _ Output, in Input) *ValidationError {
	text := normalize(q.Text)
	for _, p := range in.Prior {
		if normalize(p) == text {
			return &ValidationError{Validator: v.Name(), Message: "question already in bank", Retryable: true}
		}
	}
	return nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
