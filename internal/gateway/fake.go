package gateway

import (
	"context"
	"sync"

	"github.com/abhisek/practest/internal/quiz"
)

// ProgressCall records one UpdateProgress invocation on a Fake.
type ProgressCall struct {
	UserID    string
	TopicID   string
	Completed bool
}

// Fake is an in-memory Gateway for tests. Set the *Err fields to make the
// corresponding call fail with a typed gateway error.
type Fake struct {
	mu sync.Mutex

	SubjectList []quiz.Subject
	TopicList   map[string][]quiz.Topic
	QuestionSet []quiz.Question

	SubjectsErr error
	TopicsErr   error
	GenerateErr error
	SaveErr     error
	ProgressErr error

	Results       []Result
	ProgressCalls []ProgressCall
	Configs       []quiz.TestConfig
}

var _ Gateway = (*Fake)(nil)

func (f *Fake) Subjects(context.Context) ([]quiz.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubjectsErr != nil {
		return nil, &FetchError{Op: "subjects", Err: f.SubjectsErr}
	}
	return append([]quiz.Subject(nil), f.SubjectList...), nil
}

func (f *Fake) Topics(_ context.Context, subject string) ([]quiz.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TopicsErr != nil {
		return nil, &FetchError{Op: "topics", Err: f.TopicsErr}
	}
	return append([]quiz.Topic(nil), f.TopicList[subject]...), nil
}

func (f *Fake) GenerateTest(_ context.Context, cfg quiz.TestConfig, _ string) ([]quiz.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Configs = append(f.Configs, cfg)
	if f.GenerateErr != nil {
		return nil, &FetchError{Op: "questions", Err: f.GenerateErr}
	}
	return append([]quiz.Question(nil), f.QuestionSet...), nil
}

func (f *Fake) SaveResult(_ context.Context, r Result) (Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SaveErr != nil {
		return Ack{}, &PersistError{Op: "results", Err: f.SaveErr}
	}
	f.Results = append(f.Results, r)
	return Ack{ID: "result-" + r.Subject}, nil
}

func (f *Fake) UpdateProgress(_ context.Context, userID, topicID string, completed bool) (Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ProgressErr != nil {
		return Ack{}, &PersistError{Op: "progress", Err: f.ProgressErr}
	}
	f.ProgressCalls = append(f.ProgressCalls, ProgressCall{UserID: userID, TopicID: topicID, Completed: completed})
	return Ack{}, nil
}

// SavedResults returns a copy of the persisted results.
func (f *Fake) SavedResults() []Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Result(nil), f.Results...)
}

// Progress returns a copy of the recorded progress calls.
func (f *Fake) Progress() []ProgressCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ProgressCall(nil), f.ProgressCalls...)
}
