package rulegen

// BuildRulesJSONSchema returns the envelope schema (draft 2020-12 subset) the
// generated response must satisfy before per-field validation runs: a
// non-empty "fields" object. Rule shapes are deliberately not constrained
// here; the tagged-union check in the model runs per field, so one bad rule
// is dropped and reported instead of rejecting the whole result.
func BuildRulesJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"fields"},
		"properties": map[string]any{
			"fields": map[string]any{
				"type":          "object",
				"minProperties": 1,
			},
		},
	}
}
