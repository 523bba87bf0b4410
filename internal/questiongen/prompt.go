package questiongen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write practice questions for students preparing for school exams.

Rules:
- Write exactly one question for the given subject, topic and difficulty.
- "easy" checks recall of a definition or fact, "medium" needs one step of reasoning or calculation, "hard" combines several ideas.
- For an "objective" question give exactly 4 options with exactly one correct, and set correct_option to its zero-based index. Leave answer empty.
- For a "subjective" question leave options empty, set correct_option to -1 and give a short model answer of one or two sentences.
- The explanation states why the correct answer is right in at most three sentences.
- Use plain text. No markdown, no LaTeX.
- Do not repeat any question from the "already in bank" list.`

func buildUserMessage(in Input, maxPrior int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", in.Subject)
	fmt.Fprintf(&b, "Topic: %s\n", in.Topic)
	fmt.Fprintf(&b, "Difficulty: %s\n", in.Difficulty)
	fmt.Fprintf(&b, "Question type: %s\n", in.Type)
	b.WriteString("\nAlready in bank:\n")
	b.WriteString(numbered(in.Prior, maxPrior))
	return b.String()
}

// numbered lists the last max items, or "None".
func numbered(items []string, max int) string {
	if len(items) == 0 {
		return "None"
	}
	if max > 0 && len(items) > max {
		items = items[len(items)-max:]
	}
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it)
	}
	return strings.TrimRight(b.String(), "\n")
}
