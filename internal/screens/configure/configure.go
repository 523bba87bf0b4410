// Package configure is the test configuration form.
package configure

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/router"
	"github.com/abhisek/practest/internal/screen"
	"github.com/abhisek/practest/internal/screens"
	sessionscreen "github.com/abhisek/practest/internal/screens/session"
	"github.com/abhisek/practest/internal/session"
	"github.com/abhisek/practest/internal/ui/components"
	"github.com/abhisek/practest/internal/ui/layout"
	"github.com/abhisek/practest/internal/ui/theme"
)

// Form fields in focus order.
const (
	fieldTopics = iota
	fieldDuration
	fieldQuestions
	fieldDifficulty
	fieldTypes
	fieldStart
	numFields
)

type topicsMsg struct{ err error }

type startedMsg struct {
	engine *session.Engine
	err    error
}

// ConfigureScreen collects a TestConfig and starts the attempt.
type ConfigureScreen struct {
	env     *screens.Env
	subject quiz.Subject

	focus      int
	topics     components.Checklist
	duration   components.TextInput
	count      components.TextInput
	difficulty components.Checklist
	types      components.Checklist

	starting bool
	errMsg   string
}

var _ screen.Screen = (*ConfigureScreen)(nil)
var _ screen.KeyHintProvider = (*ConfigureScreen)(nil)

// New creates the form with default settings for subject.
func New(env *screens.Env, subject quiz.Subject) *ConfigureScreen {
	def := quiz.DefaultTestConfig(subject.ID)

	c := &ConfigureScreen{
		env:      env,
		subject:  subject,
		duration: components.NewTextInput("minutes", true, 3),
		count:    components.NewTextInput("questions", true, 2),
	}
	c.duration.SetValue(strconv.Itoa(def.Duration / 60))
	c.count.SetValue(strconv.Itoa(def.QuestionCount))
	c.duration.Blur()
	c.count.Blur()

	for _, d := range quiz.Difficulties {
		c.difficulty.Items = append(c.difficulty.Items, components.CheckItem{
			Key: string(d), Label: titleCase(string(d)), Checked: def.HasDifficulty(d),
		})
	}
	for _, t := range quiz.QuestionTypes {
		c.types.Items = append(c.types.Items, components.CheckItem{
			Key: string(t), Label: titleCase(string(t)), Checked: def.HasType(t),
		})
	}
	c.loadTopics()
	return c
}

func (c *ConfigureScreen) Init() tea.Cmd {
	if len(c.topics.Items) > 0 {
		return nil
	}
	env, subject := c.env, c.subject.ID
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		return topicsMsg{err: env.Progress.Fetch(ctx, subject)}
	}
}

func (c *ConfigureScreen) loadTopics() {
	checked := map[string]bool{}
	for _, it := range c.topics.Items {
		checked[it.Key] = it.Checked
	}
	var items []components.CheckItem
	for _, t := range c.env.Progress.TopicsFor(c.subject.ID) {
		items = append(items, components.CheckItem{Key: t.ID, Label: t.Name, Checked: checked[t.ID]})
	}
	c.topics.Items = items
	if c.topics.Cursor >= len(items) {
		c.topics.Cursor = 0
	}
}

func (c *ConfigureScreen) Title() string {
	return "Configure Test"
}

func (c *ConfigureScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Space", Description: "Toggle"},
		{Key: "A", Description: "All topics"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

// Config returns the form contents as a TestConfig. Unparseable numbers
// become zero and fail validation.
func (c *ConfigureScreen) Config() quiz.TestConfig {
	minutes, _ := c.duration.NumericValue()
	count, _ := c.count.NumericValue()
	cfg := quiz.TestConfig{
		Subject:       c.subject.ID,
		Topics:        c.topics.Checked(),
		Duration:      minutes * 60,
		QuestionCount: count,
	}
	for _, d := range c.difficulty.Checked() {
		cfg.Difficulty = append(cfg.Difficulty, quiz.Difficulty(d))
	}
	for _, t := range c.types.Checked() {
		cfg.QuestionTypes = append(cfg.QuestionTypes, quiz.QuestionType(t))
	}
	return cfg
}

func (c *ConfigureScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case topicsMsg:
		c.loadTopics()
		if msg.err != nil {
			c.errMsg = "Could not load topics: " + msg.err.Error()
		}
		return c, nil

	case startedMsg:
		c.starting = false
		if msg.err != nil {
			c.errMsg = "Could not start the test: " + msg.err.Error()
			return c, nil
		}
		return c, router.Replace(sessionscreen.New(c.env, msg.engine, c.subject))

	case tea.KeyPressMsg:
		if c.starting {
			return c, nil
		}
		switch msg.String() {
		case "tab", "down":
			if msg.String() == "down" && c.isList() && !c.atListEnd() {
				break
			}
			return c, c.setFocus(c.focus + 1)
		case "shift+tab", "up":
			if msg.String() == "up" && c.isList() && !c.atListStart() {
				break
			}
			return c, c.setFocus(c.focus - 1)
		case "enter":
			return c, c.start()
		}
	}

	var cmd tea.Cmd
	switch c.focus {
	case fieldTopics:
		c.topics = c.topics.Update(msg)
	case fieldDuration:
		c.duration, cmd = c.duration.Update(msg)
	case fieldQuestions:
		c.count, cmd = c.count.Update(msg)
	case fieldDifficulty:
		c.difficulty = c.difficulty.Update(msg)
	case fieldTypes:
		c.types = c.types.Update(msg)
	}
	return c, cmd
}

func (c *ConfigureScreen) isList() bool {
	return c.focus == fieldTopics || c.focus == fieldDifficulty || c.focus == fieldTypes
}

func (c *ConfigureScreen) list() *components.Checklist {
	switch c.focus {
	case fieldTopics:
		return &c.topics
	case fieldDifficulty:
		return &c.difficulty
	case fieldTypes:
		return &c.types
	}
	return nil
}

func (c *ConfigureScreen) atListEnd() bool {
	l := c.list()
	return l == nil || l.Cursor >= len(l.Items)-1
}

func (c *ConfigureScreen) atListStart() bool {
	l := c.list()
	return l == nil || l.Cursor == 0
}

func (c *ConfigureScreen) setFocus(f int) tea.Cmd {
	c.focus = (f + numFields) % numFields
	c.duration.Blur()
	c.count.Blur()
	switch c.focus {
	case fieldDuration:
		return c.duration.Focus()
	case fieldQuestions:
		return c.count.Focus()
	}
	return nil
}

func (c *ConfigureScreen) start() tea.Cmd {
	cfg := c.Config()
	if err := cfg.Validate(); err != nil {
		c.errMsg = describe(err)
		return nil
	}
	c.errMsg = ""
	c.starting = true
	env := c.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		e, err := env.Attempt.Start(ctx, cfg)
		return startedMsg{engine: e, err: err}
	}
}

// describe turns a validation error into a form message.
func describe(err error) string {
	if !errors.Is(err, quiz.ErrInvalidConfig) {
		return err.Error()
	}
	msg := strings.TrimPrefix(err.Error(), quiz.ErrInvalidConfig.Error()+": ")
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func (c *ConfigureScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	label := func(f int, text string) string {
		if c.focus == f {
			return theme.Selected.Render(text)
		}
		return theme.Heading.Render(text)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(c.subject.Name+" test") + "\n\n")

	b.WriteString(label(fieldTopics, "Topics") + "\n")
	if len(c.topics.Items) == 0 {
		b.WriteString(theme.Hint.Render("  Loading topics...") + "\n")
	} else {
		b.WriteString(c.topics.View(c.focus == fieldTopics))
	}
	b.WriteString("\n")

	b.WriteString(label(fieldDuration, "Duration (minutes)") + "  " + c.duration.View() +
		theme.Hint.Render(fmt.Sprintf("  %d-%d", int(quiz.MinDuration.Minutes()), int(quiz.MaxDuration.Minutes()))) + "\n")
	b.WriteString(label(fieldQuestions, "Questions") + "           " + c.count.View() +
		theme.Hint.Render(fmt.Sprintf("  %d-%d", quiz.MinQuestionCount, quiz.MaxQuestionCount)) + "\n\n")

	b.WriteString(label(fieldDifficulty, "Difficulty") + "\n")
	b.WriteString(c.difficulty.View(c.focus == fieldDifficulty) + "\n")
	b.WriteString(label(fieldTypes, "Question types") + "\n")
	b.WriteString(c.types.View(c.focus == fieldTypes) + "\n")

	if c.starting {
		b.WriteString(theme.Hint.Render("Preparing your test..."))
	} else {
		b.WriteString(components.Button("Start test", c.focus == fieldStart))
	}
	if c.errMsg != "" {
		b.WriteString("\n\n" + components.Banner(c.errMsg, cw-4))
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(components.Card("", b.String(), cw))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
