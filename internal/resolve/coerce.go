package resolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/docforge/docforge/internal/model"
)

var thousandsSep = strings.NewReplacer(",", "", " ", "", " ", "")

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// coerce converts a raw resolved value to the rule's data type. Dates fail
// open to the raw string; numbers and booleans return an error the caller
// turns into a per-field validation failure (or degrades for non-required
// fields). The rule-level pattern, when present, extracts/validates first.
func coerce(raw any, rule model.ExtractionRule) (any, error) {
	if s, ok := raw.(string); ok && rule.Pattern != "" {
		re := regexp.MustCompile(rule.Pattern) // compiled once during validation
		m := re.FindStringSubmatch(s)
		switch {
		case len(m) >= 2:
			raw = m[1]
		case len(m) == 1:
			// matched without a capture group: value passes as-is
		default:
			return nil, fmt.Errorf("value %q does not match pattern %q", s, rule.Pattern)
		}
	}

	switch rule.DataType {
	case "", model.DataString:
		return raw, nil

	case model.DataNumber:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("cannot coerce %T to number", raw)
		}
		cleaned := strings.TrimLeft(thousandsSep.Replace(strings.TrimSpace(s)), "$€£¥")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to number", s)
		}
		return f, nil

	case model.DataDate:
		s, ok := raw.(string)
		if !ok {
			return raw, nil
		}
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02"), nil
			}
		}
		return s, nil // fail open to the raw string

	case model.DataBoolean:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("cannot coerce %T to boolean", raw)
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "true", "checked", "1":
			return true, nil
		case "no", "false", "unchecked", "0":
			return false, nil
		}
		return nil, fmt.Errorf("cannot coerce %q to boolean", s)

	case model.DataArray:
		switch v := raw.(type) {
		case []string:
			return v, nil
		case string:
			parts := strings.Split(v, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out, nil
		}
		return nil, fmt.Errorf("cannot coerce %T to array", raw)
	}
	return raw, nil
}
