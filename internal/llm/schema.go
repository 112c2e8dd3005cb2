package llm

// ResponseJSONSchema is the shape the model's answer must have. Values are
// loosely typed because models return amounts both as numbers and strings;
// field normalization happens after validation.
func ResponseJSONSchema() map[string]any {
	numberish := map[string]any{"type": []any{"number", "string", "null"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"amount":     numberish,
			"sum":        numberish,
			"date":       map[string]any{"type": []any{"string", "null"}},
			"currency":   map[string]any{"type": []any{"string", "null"}},
			"confidence": numberish,
		},
	}
}
