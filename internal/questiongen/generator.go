// Package questiongen authors quiz questions with an LLM and checks them
// before they enter the question bank.
package questiongen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/practest/internal/llm"
	"github.com/abhisek/practest/internal/quiz"
)

// Generator produces a single validated question.
type Generator interface {
	Generate(ctx context.Context, in Input) (*quiz.Question, error)
}

// Input describes the question to author.
type Input struct {
	Subject    string
	Topic      string
	Difficulty quiz.Difficulty
	Type       quiz.QuestionType

	// Prior holds question texts already in the bank for this topic, used
	// to steer the model away from duplicates.
	Prior []string
}

// Config controls an LLMGenerator.
type Config struct {
	// Validators run in order; the first failure rejects the question.
	Validators  []Validator
	MaxTokens   int
	Temperature float64
	MaxPrior    int
}

// DefaultConfig returns the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&ObjectiveValidator{},
			&SubjectiveValidator{},
			&DuplicateValidator{},
		},
		MaxTokens:   700,
		Temperature: 0.7,
		MaxPrior:    10,
	}
}

// LLMGenerator implements Generator with an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates an LLMGenerator.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// Output is the raw model response before validation.
type Output struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Answer        string   `json:"answer"`
	Explanation   string   `json:"explanation"`
}

// optionIDs label objective options in order.
var optionIDs = []string{"a", "b", "c", "d", "e", "f"}

func (g *LLMGenerator) Generate(ctx context.Context, in Input) (*quiz.Question, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	req := llm.UserPrompt(systemPrompt, buildUserMessage(in, g.config.MaxPrior), QuestionSchema, g.config.MaxTokens)
	req.Temperature = g.config.Temperature

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}

	var raw Output
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("parse question: %w", err)
	}

	q := toQuestion(raw, in)
	for _, v := range g.config.Validators {
		if verr := v.Validate(q, raw, in); verr != nil {
			return nil, verr
		}
	}
	return q, nil
}

func toQuestion(raw Output, in Input) *quiz.Question {
	q := &quiz.Question{
		ID:          uuid.New().String(),
		Subject:     in.Subject,
		Topic:       in.Topic,
		Type:        in.Type,
		Text:        raw.Question,
		Explanation: raw.Explanation,
		Difficulty:  in.Difficulty,
	}
	if in.Type == quiz.TypeSubjective {
		q.CorrectAnswer = raw.Answer
		return q
	}
	for i, text := range raw.Options {
		if i >= len(optionIDs) {
			break
		}
		q.Options = append(q.Options, quiz.Option{ID: optionIDs[i], Text: text})
	}
	if raw.CorrectOption >= 0 && raw.CorrectOption < len(q.Options) {
		q.CorrectAnswer = q.Options[raw.CorrectOption].ID
	}
	return q
}
