package quiz

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned when a TestConfig cannot be used to request a test.
var ErrInvalidConfig = errors.New("invalid test config")

// Bounds applied to user-supplied test configuration.
const (
	MinDuration      = 5 * time.Minute
	MaxDuration      = 180 * time.Minute
	MinQuestionCount = 5
	MaxQuestionCount = 50

	DefaultDuration      = 20 * time.Minute
	DefaultQuestionCount = 10
)

// TestConfig is the learner's test request. Duration is in seconds.
type TestConfig struct {
	Subject       string         `json:"subject"`
	Topics        []string       `json:"topics"`
	Duration      int            `json:"duration"`
	QuestionCount int            `json:"questionCount"`
	Difficulty    []Difficulty   `json:"difficulty"`
	QuestionTypes []QuestionType `json:"questionTypes"`
}

// DefaultTestConfig returns the form defaults for subject.
func DefaultTestConfig(subject string) TestConfig {
	return TestConfig{
		Subject:       subject,
		Duration:      int(DefaultDuration.Seconds()),
		QuestionCount: DefaultQuestionCount,
		Difficulty:    []Difficulty{DifficultyEasy, DifficultyMedium},
		QuestionTypes: []QuestionType{TypeObjective, TypeSubjective},
	}
}

// DurationTime returns the configured duration as a time.Duration.
func (c TestConfig) DurationTime() time.Duration {
	return time.Duration(c.Duration) * time.Second
}

// Validate checks that c describes a requestable test.
func (c TestConfig) Validate() error {
	if c.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidConfig)
	}
	if len(c.Topics) == 0 {
		return fmt.Errorf("%w: at least one topic is required", ErrInvalidConfig)
	}
	d := c.DurationTime()
	if d < MinDuration || d > MaxDuration {
		return fmt.Errorf("%w: duration %s outside [%s, %s]", ErrInvalidConfig, d, MinDuration, MaxDuration)
	}
	if c.QuestionCount < MinQuestionCount || c.QuestionCount > MaxQuestionCount {
		return fmt.Errorf("%w: question count %d outside [%d, %d]",
			ErrInvalidConfig, c.QuestionCount, MinQuestionCount, MaxQuestionCount)
	}
	if len(c.Difficulty) == 0 {
		return fmt.Errorf("%w: at least one difficulty is required", ErrInvalidConfig)
	}
	for _, d := range c.Difficulty {
		if !d.Valid() {
			return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, d)
		}
	}
	if len(c.QuestionTypes) == 0 {
		return fmt.Errorf("%w: at least one question type is required", ErrInvalidConfig)
	}
	for _, t := range c.QuestionTypes {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown question type %q", ErrInvalidConfig, t)
		}
	}
	return nil
}

// HasDifficulty reports whether d is among the selected difficulties.
func (c TestConfig) HasDifficulty(d Difficulty) bool {
	for _, x := range c.Difficulty {
		if x == d {
			return true
		}
	}
	return false
}

// HasType reports whether t is among the selected question types.
func (c TestConfig) HasType(t QuestionType) bool {
	for _, x := range c.QuestionTypes {
		if x == t {
			return true
		}
	}
	return false
}
