package questiongen

import "github.com/abhisek/practest/internal/llm"

// QuestionSchema is the structured output requested from the model.
var QuestionSchema = &llm.Schema{
	Name:        "quiz-question",
	Description: "A single practice question with its answer and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question prompt shown to the learner",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Answer options for objective questions, 4 entries. Empty for subjective questions.",
			},
			"correct_option": map[string]any{
				"type":        "integer",
				"description": "Zero-based index of the correct option. -1 for subjective questions.",
			},
			"answer": map[string]any{
				"type":        "string",
				"description": "Model answer for subjective questions. Empty for objective questions.",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Short worked explanation of the correct answer",
			},
		},
		"required":             []any{"question", "options", "correct_option", "answer", "explanation"},
		"additionalProperties": false,
	},
}
