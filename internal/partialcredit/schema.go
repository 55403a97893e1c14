package partialcredit

import "github.com/abhisek/mathverify/internal/llm"

// CreditSchema defines the JSON schema for partial-credit responses.
var CreditSchema = &llm.Schema{
	Name:        "partial-credit",
	Description: "Fractional credit for a wrong answer to one part of a math exercise",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"delta": map[string]any{
				"type":        "number",
				"minimum":     0.0,
				"maximum":     1.0,
				"description": "Fraction of the item's credit earned by the learner's working (0.0 to 1.0)",
			},
			"note": map[string]any{
				"type":        "string",
				"description": "One short sentence of feedback addressed to the learner",
			},
			"steps": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"step":    map[string]any{"type": "string"},
						"correct": map[string]any{"type": "boolean"},
						"comment": map[string]any{"type": "string"},
					},
					"required":             []any{"step", "correct"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"delta", "note"},
		"additionalProperties": false,
	},
}
