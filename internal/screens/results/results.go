// Package results shows the score of a finished attempt and a review of
// every question.
package results

import (
	"fmt"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/router"
	"github.com/abhisek/practest/internal/screen"
	"github.com/abhisek/practest/internal/screens"
	"github.com/abhisek/practest/internal/session"
	"github.com/abhisek/practest/internal/ui/components"
	"github.com/abhisek/practest/internal/ui/layout"
	"github.com/abhisek/practest/internal/ui/theme"
)

// topicResult is the per-topic tally of one attempt.
type topicResult struct {
	Topic   string
	Total   int
	Correct int
}

func (t topicResult) percent() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Total) * 100
}

// ResultsScreen displays a completed submission.
type ResultsScreen struct {
	env       *screens.Env
	subject   quiz.Subject
	sub       *session.Submission
	commitErr error
	topics    []topicResult
	mix       string
	review    int
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)
var _ screen.EscapeHandler = (*ResultsScreen)(nil)

// New creates the results screen. commitErr is the error from saving the
// attempt; the score is shown either way.
func New(env *screens.Env, subject quiz.Subject, sub *session.Submission, commitErr error) *ResultsScreen {
	r := &ResultsScreen{env: env, subject: subject, sub: sub, commitErr: commitErr}
	if sub != nil {
		r.topics = tally(sub.Questions)
		r.mix = difficultyMix(sub.Questions)
	}
	return r
}

func tally(qs []quiz.TestQuestion) []topicResult {
	byTopic := map[string]*topicResult{}
	var order []string
	for _, q := range qs {
		t, ok := byTopic[q.Topic]
		if !ok {
			t = &topicResult{Topic: q.Topic}
			byTopic[q.Topic] = t
			order = append(order, q.Topic)
		}
		t.Total++
		if q.IsCorrect() {
			t.Correct++
		}
	}
	sort.Strings(order)
	out := make([]topicResult, len(order))
	for i, id := range order {
		out[i] = *byTopic[id]
	}
	return out
}

// difficultyMix renders the number of questions per difficulty, easiest first.
func difficultyMix(qs []quiz.TestQuestion) string {
	counts := map[quiz.Difficulty]int{}
	for _, q := range qs {
		counts[q.Difficulty]++
	}
	var parts []string
	for _, d := range []quiz.Difficulty{quiz.DifficultyEasy, quiz.DifficultyMedium, quiz.DifficultyHard} {
		if n := counts[d]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", d, n))
		}
	}
	return strings.Join(parts, " · ")
}

func (r *ResultsScreen) Init() tea.Cmd {
	return nil
}

func (r *ResultsScreen) Title() string {
	return "Results"
}

func (r *ResultsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←/→", Description: "Review"},
		{Key: "Enter", Description: "Dashboard"},
	}
}

func (r *ResultsScreen) HandlesEscape() bool {
	return true
}

// Reviewing returns the index of the question under review.
func (r *ResultsScreen) Reviewing() int {
	return r.review
}

func (r *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return r, nil
	}
	switch kmsg.String() {
	case "enter", "esc", "q":
		return r, tea.Sequence(router.Pop, func() tea.Msg { return screens.RefreshMsg{} })
	case "right", "l", "n":
		if r.sub != nil && r.review < len(r.sub.Questions)-1 {
			r.review++
		}
	case "left", "h", "p":
		if r.review > 0 {
			r.review--
		}
	}
	return r, nil
}

func (r *ResultsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if r.sub == nil {
		return components.Center(theme.Hint.Render("No result to show."), width, height)
	}

	sections := []string{r.renderScore()}
	if r.commitErr != nil {
		sections = append(sections, components.Banner("Your result could not be saved: "+r.commitErr.Error(), cw))
	}
	sections = append(sections,
		components.Card("By topic", r.renderTopics(cw-4), cw),
		components.Card(fmt.Sprintf("Review %d/%d", r.review+1, len(r.sub.Questions)), r.renderReview(cw-4), cw),
	)
	return lipgloss.NewStyle().Width(width).Padding(0, 2).Render(strings.Join(sections, "\n"))
}

func (r *ResultsScreen) renderScore() string {
	sub := r.sub
	score := theme.ScoreStyle(sub.Score).Render(fmt.Sprintf("%.0f%%", sub.Score))
	return strings.Join([]string{
		theme.Title.Render(r.subject.Name+" test complete") + "   " + score,
		theme.Subtitle.Render(fmt.Sprintf("%d correct · %d attempted · %d questions · %s of %s",
			sub.Correct(), sub.Attempted(), len(sub.Questions),
			layout.FormatClock(sub.TimeTaken), layout.FormatClock(sub.Duration))),
		"",
	}, "\n")
}

func (r *ResultsScreen) renderTopics(width int) string {
	labelWidth := 0
	for _, t := range r.topics {
		labelWidth = max(labelWidth, lipgloss.Width(r.topicName(t.Topic)))
	}
	labelWidth = min(labelWidth, width/3)

	var b strings.Builder
	for _, t := range r.topics {
		bar := components.ProgressBar{
			Label:      r.topicName(t.Topic),
			LabelWidth: labelWidth,
			Percent:    t.percent(),
			Suffix:     fmt.Sprintf("%d/%d", t.Correct, t.Total),
			Width:      width,
		}
		b.WriteString(bar.View() + "\n")
	}
	if r.mix != "" {
		b.WriteString("\n" + theme.Hint.Render("Difficulty  "+r.mix))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *ResultsScreen) renderReview(width int) string {
	q := r.sub.Questions[r.review]

	var b strings.Builder
	status := theme.Incorrect.Render("Incorrect")
	switch {
	case !q.IsAttempted:
		status = theme.Hint.Render("Not attempted")
	case q.IsCorrect():
		status = theme.Correct.Render("Correct")
	}
	b.WriteString(status + theme.Subtitle.Render(fmt.Sprintf("  %s · %s", r.topicName(q.Topic), q.Difficulty)) + "\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Bold(true).Render(q.Text) + "\n\n")

	if q.Type == quiz.TypeObjective {
		b.WriteString(components.ReviewView(q.Options, q.SelectedAnswer, q.CorrectAnswer))
	} else {
		answer := q.SelectedAnswer
		if answer == "" {
			answer = "(no answer)"
		}
		b.WriteString("Your answer:     " + answer + "\n")
		b.WriteString("Expected answer: " + theme.Correct.Render(q.CorrectAnswer) + "\n")
	}
	if q.Explanation != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(width).Foreground(theme.TextDim).Render(q.Explanation))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *ResultsScreen) topicName(id string) string {
	if r.env != nil && r.env.Progress != nil {
		if t, ok := r.env.Progress.Lookup(id); ok {
			return t.Name
		}
	}
	return id
}
