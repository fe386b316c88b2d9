package model

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Selector is a structural descriptor for non-AI strategies (CSS/XPath plus a
// sample of the matched content).
type Selector struct {
	Field  string `json:"field"`
	CSS    string `json:"css,omitempty"`
	XPath  string `json:"xpath,omitempty"`
	Sample string `json:"sample,omitempty"`
}

// Template is a named, versioned mapping from field names to extraction
// rules, reusable across documents of the same layout family. Field names are
// unique (map keys) and are the join key to output records. Version is the
// optimistic-concurrency token: a write is accepted only when the caller's
// base version matches the stored one.
type Template struct {
	ID               uuid.UUID                 `json:"id"`
	Name             string                    `json:"name"`
	Fields           map[string]ExtractionRule `json:"fields"`
	ExtractionMethod string                    `json:"extraction_method"`
	Selectors        []Selector                `json:"selectors,omitempty"`
	Status           string                    `json:"status"`
	Version          int64                     `json:"version"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// Clone returns a deep-enough copy for snapshot-then-mutate flows. Rules are
// value types; the fields map and selectors slice are copied.
func (t *Template) Clone() *Template {
	cp := *t
	cp.Fields = maps.Clone(t.Fields)
	cp.Selectors = append([]Selector(nil), t.Selectors...)
	return &cp
}

// GenerationMetadata records what the rule-generation pipeline looked at.
type GenerationMetadata struct {
	Model                 string    `json:"model"`
	GeneratedAt           time.Time `json:"generatedAt"`
	TablesAnalyzed        int       `json:"tablesAnalyzed"`
	KeyValuePairsAnalyzed int       `json:"keyValuePairsAnalyzed"`
}

// GeneratedRules is the transient output of rule generation; the caller
// decides whether to persist it as a Template.
type GeneratedRules struct {
	Fields   map[string]ExtractionRule `json:"fields"`
	Metadata GenerationMetadata        `json:"metadata"`
}

// CorrectionRecord is one user-supplied replacement value for a previously
// extracted field/row. A batch applies to one extraction run of one template.
type CorrectionRecord struct {
	RowIndex  int    `json:"rowIndex"`
	FieldName string `json:"fieldName"`
	OldValue  string `json:"oldValue"`
	NewValue  string `json:"newValue"`
}
