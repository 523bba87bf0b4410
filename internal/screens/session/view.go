package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/practest/internal/quiz"
	sess "github.com/abhisek/practest/internal/session"
	"github.com/abhisek/practest/internal/ui/components"
	"github.com/abhisek/practest/internal/ui/layout"
	"github.com/abhisek/practest/internal/ui/theme"
)

// lowTime is the remaining seconds from which the clock turns red.
const lowTime = 60

func (s *SessionScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	q, idx, err := s.engine.Current()
	if err != nil {
		return components.Center(theme.Hint.Render("No questions loaded."), width, height)
	}

	var b strings.Builder
	b.WriteString(s.renderStatus(idx, cw) + "\n")
	b.WriteString(layout.Rule(cw) + "\n\n")

	meta := fmt.Sprintf("%s · %s · %s", s.topicName(q.Topic), q.Difficulty, q.Type)
	if q.IsBookmarked {
		meta += "  " + theme.Bookmarked.Render("★ bookmarked")
	}
	b.WriteString(theme.Subtitle.Render(meta) + "\n\n")
	b.WriteString(lipgloss.NewStyle().Width(cw).Bold(true).Foreground(theme.Text).Render(q.Text) + "\n\n")

	if q.Type == quiz.TypeObjective {
		b.WriteString(s.choices.View())
	} else {
		b.WriteString(s.input.View() + "\n")
	}

	switch {
	case s.navigating:
		b.WriteString("\n" + components.Card("Questions", s.renderNavigator(), cw))
	case s.confirming:
		b.WriteString("\n" + s.renderConfirm(cw))
	case s.submitting:
		b.WriteString("\n" + theme.Hint.Render("Submitting..."))
	}
	if s.errMsg != "" {
		b.WriteString("\n" + components.Banner(s.errMsg, cw))
	}

	return lipgloss.NewStyle().Width(width).Padding(0, 2).Render(b.String())
}

// renderStatus is the line with position, answered count and the clock.
func (s *SessionScreen) renderStatus(idx, width int) string {
	items := s.engine.Overview()
	answered := 0
	for _, it := range items {
		if it.Attempted {
			answered++
		}
	}

	left := theme.Heading.Render(fmt.Sprintf("Question %d of %d", idx+1, len(items)))
	remaining := s.engine.TimeRemaining()
	clockStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	if remaining <= lowTime {
		clockStyle = theme.Incorrect
	}
	right := theme.Subtitle.Render(fmt.Sprintf("%d answered  ", answered)) +
		clockStyle.Render("⏱ "+layout.FormatClock(remaining))

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (s *SessionScreen) renderNavigator() string {
	items := s.engine.Overview()
	var b strings.Builder
	for i, it := range items {
		b.WriteString(navCell(it, i == s.navCursor))
		if (i+1)%navColumns == 0 || i == len(items)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	b.WriteString(theme.Hint.Render("● answered  ★ bookmarked  ▸ current"))
	return b.String()
}

func navCell(it sess.NavItem, cursor bool) string {
	mark := " "
	switch {
	case it.Bookmarked:
		mark = "★"
	case it.Attempted:
		mark = "●"
	}
	if it.Current {
		mark = "▸"
	}
	cell := fmt.Sprintf("%s%2d", mark, it.Index+1)

	style := theme.Unselected
	switch {
	case cursor:
		style = theme.ButtonActive.Padding(0)
	case it.Bookmarked:
		style = theme.Bookmarked
	case it.Attempted:
		style = theme.Correct
	}
	return style.Render(cell)
}

func (s *SessionScreen) renderConfirm(width int) string {
	items := s.engine.Overview()
	unanswered := 0
	for _, it := range items {
		if !it.Attempted {
			unanswered++
		}
	}
	msg := "Submit your test?"
	if unanswered > 0 {
		msg = fmt.Sprintf("Submit your test? %d question(s) are unanswered.", unanswered)
	}
	return components.Card("", theme.Body.Render(msg)+"\n\n"+
		components.Button("Y Submit", true)+"  "+components.Button("N Keep going", false), width)
}

func (s *SessionScreen) topicName(id string) string {
	if s.env != nil && s.env.Progress != nil {
		if t, ok := s.env.Progress.Lookup(id); ok {
			return t.Name
		}
	}
	return id
}
