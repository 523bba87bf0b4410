// Package dashboard shows a subject's topic progress and the learner's
// performance outlook.
package dashboard

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practest/internal/analytics"
	"github.com/abhisek/practest/internal/progress"
	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/router"
	"github.com/abhisek/practest/internal/screen"
	"github.com/abhisek/practest/internal/screens"
	"github.com/abhisek/practest/internal/screens/configure"
	"github.com/abhisek/practest/internal/ui/components"
	"github.com/abhisek/practest/internal/ui/layout"
	"github.com/abhisek/practest/internal/ui/theme"
)

// loadedMsg carries the result of a dashboard refresh.
type loadedMsg struct {
	snapshot analytics.Snapshot
	err      error
}

// DashboardScreen is the per-subject overview.
type DashboardScreen struct {
	env      *screens.Env
	subject  quiz.Subject
	snapshot analytics.Snapshot
	loading  bool
	err      error
}

var _ screen.Screen = (*DashboardScreen)(nil)
var _ screen.KeyHintProvider = (*DashboardScreen)(nil)

// New creates the dashboard for subject.
func New(env *screens.Env, subject quiz.Subject) *DashboardScreen {
	return &DashboardScreen{env: env, subject: subject}
}

func (d *DashboardScreen) Init() tea.Cmd {
	return d.load()
}

func (d *DashboardScreen) Title() string {
	return d.subject.Name
}

func (d *DashboardScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "New test"},
		{Key: "R", Description: "Reload"},
		{Key: "Esc", Description: "Subjects"},
	}
}

func (d *DashboardScreen) load() tea.Cmd {
	d.loading = true
	env, subject := d.env, d.subject.ID
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()

		fetchErr := env.Progress.Fetch(ctx, subject)
		an := env.Attempt.Analytics()
		refreshErr := an.Refresh(ctx)
		snap, snapErr := an.Snapshot(ctx)
		return loadedMsg{snapshot: snap, err: errors.Join(fetchErr, refreshErr, snapErr)}
	}
}

func (d *DashboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		d.loading = false
		d.snapshot = msg.snapshot
		d.err = msg.err
		return d, nil

	case screens.RefreshMsg:
		return d, d.load()

	case tea.KeyPressMsg:
		switch msg.String() {
		case "enter", "n":
			return d, router.Push(configure.New(d.env, d.subject))
		case "r":
			if !d.loading {
				return d, d.load()
			}
		}
	}
	return d, nil
}

func (d *DashboardScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, theme.Title.Render(d.subject.Name))
	if d.subject.Description != "" {
		sections = append(sections, theme.Subtitle.Render(d.subject.Description))
	}
	sections = append(sections, "")

	sections = append(sections, components.Card("Topic Progress", d.renderTopics(cw-4), cw))
	sections = append(sections, components.Card("Performance", d.renderPerformance(), cw))

	if d.err != nil {
		sections = append(sections, components.Banner(d.err.Error(), cw))
	}
	sections = append(sections, "", components.Button("Start a new test", true))

	return lipgloss.NewStyle().Width(width).Padding(0, 2).Render(strings.Join(sections, "\n"))
}

func (d *DashboardScreen) renderTopics(width int) string {
	topics := d.env.Progress.TopicsFor(d.subject.ID)
	if len(topics) == 0 {
		if d.loading {
			return theme.Hint.Render("Loading topics...")
		}
		return theme.Hint.Render("No topics yet.")
	}

	labelWidth := 0
	for _, t := range topics {
		labelWidth = max(labelWidth, lipgloss.Width(t.Name))
	}
	labelWidth = min(labelWidth, width/3)

	var b strings.Builder
	for _, t := range topics {
		bar := components.ProgressBar{
			Label:      t.Name,
			LabelWidth: labelWidth,
			Percent:    progress.Percent(t),
			Suffix:     fmt.Sprintf("%d/%d", t.CompletedQuestions, t.TotalQuestions),
			Width:      width,
		}
		b.WriteString(bar.View() + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *DashboardScreen) renderPerformance() string {
	snap := d.snapshot
	if len(snap.Trend) == 0 {
		return theme.Hint.Render("Take a test to see your performance here.")
	}

	scores := make([]float64, len(snap.Trend))
	for i, p := range snap.Trend {
		scores[i] = p.Score
	}
	last := scores[len(scores)-1]
	p := snap.Prediction

	lines := []string{
		fmt.Sprintf("Tests taken      %d", len(scores)),
		"Last score       " + theme.ScoreStyle(last).Render(fmt.Sprintf("%.0f%%", last)),
		fmt.Sprintf("Average          %.0f%%", analytics.Average(scores)),
		"Trend            " + components.Sparkline(scores, 30),
		"Predicted next   " + theme.ScoreStyle(p.PredictedScore).Render(fmt.Sprintf("%.0f%%", p.PredictedScore)),
		"Try difficulty   " + string(p.RecommendedDifficulty),
	}
	if len(snap.Strengths) > 0 {
		lines = append(lines, "Strengths        "+theme.Correct.Render(d.topicNames(snap.Strengths)))
	}
	if len(snap.Weaknesses) > 0 {
		lines = append(lines, "Needs work       "+theme.Incorrect.Render(d.topicNames(snap.Weaknesses)))
	}
	if p.EstimatedStudyHours > 0 {
		lines = append(lines, fmt.Sprintf("Study plan       %d hours on %s", p.EstimatedStudyHours, d.topicNames(p.RecommendedTopics)))
	}
	return strings.Join(lines, "\n")
}

// topicNames maps topic ids to display names where known.
func (d *DashboardScreen) topicNames(ids []string) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id
		if t, ok := d.env.Progress.Lookup(id); ok {
			names[i] = t.Name
		}
	}
	return strings.Join(names, ", ")
}
