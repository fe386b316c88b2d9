package rulegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/model"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON pulls the JSON payload out of a free-form model response: the
// first fenced code block that parses as a JSON object, or else the first
// balanced top-level object in the text.
func ExtractJSON(response string) ([]byte, error) {
	for _, m := range fencedBlock.FindAllStringSubmatch(response, -1) {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) && strings.HasPrefix(candidate, "{") {
			return []byte(candidate), nil
		}
	}
	if obj := firstJSONObject(response); obj != "" {
		return []byte(obj), nil
	}
	return nil, fmt.Errorf("no parseable JSON object in response")
}

// firstJSONObject scans for the first balanced {...} that is valid JSON.
func firstJSONObject(s string) string {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate
					}
					i = len(s) // abandon this start position
				}
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			return ""
		}
		start = start + 1 + next
	}
	return ""
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// DroppedField records a generated field that failed validation and was
// removed from the result instead of rejecting the whole generation.
type DroppedField struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ParseGeneratedRules validates the envelope, then each field's rule through
// the same tagged-union validation user-authored templates go through.
// Invalid fields are dropped and reported; the remainder survives.
func ParseGeneratedRules(raw []byte) (map[string]model.ExtractionRule, []DroppedField, error) {
	if err := ValidateJSONAgainstSchema(BuildRulesJSONSchema(), raw); err != nil {
		return nil, nil, common.RuleGenerationError("generated rules failed schema validation", err)
	}

	var envelope struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, common.RuleGenerationError("decoding generated rules", err)
	}

	fields := make(map[string]model.ExtractionRule, len(envelope.Fields))
	var dropped []DroppedField
	for name, ruleRaw := range envelope.Fields {
		var rule model.ExtractionRule
		if err := json.Unmarshal(ruleRaw, &rule); err != nil {
			dropped = append(dropped, DroppedField{Field: name, Reason: err.Error()})
			continue
		}
		fields[name] = rule
	}
	if len(fields) == 0 {
		return nil, dropped, common.RuleGenerationError("every generated field failed validation", nil)
	}
	return fields, dropped, nil
}
