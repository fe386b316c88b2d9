// Package resolve maps (ExtractionRule, DocumentModel) pairs to candidate
// values. Resolvers are pure: "not found" is a nil value, never an error;
// only a structurally malformed location fails, and only for that field.
package resolve

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/model"
)

// FieldError reports a per-field failure without aborting sibling fields.
type FieldError struct {
	Field string `json:"field"`
	Code  string `json:"code"` // RESOLUTION_ERROR | VALIDATION_ERROR | MISSING_REQUIRED
	Err   error  `json:"-"`
	Row   int    `json:"row,omitempty"` // -1 when not row-scoped
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: field %q: %v", e.Code, e.Field, e.Err)
}

// Result is the structured output of resolving one template against one
// document. Values holds scalar fields; Records holds one map per table row
// for columnMapping rules. Successfully resolved fields are never discarded
// because another field failed.
type Result struct {
	Values      map[string]any   `json:"values"`
	Records     []map[string]any `json:"records,omitempty"`
	FieldErrors []FieldError     `json:"fieldErrors,omitempty"`
}

// Resolve dispatches on the rule's extraction type and returns the raw
// (uncoerced) candidate value, or nil when nothing matched.
func Resolve(rule model.ExtractionRule, doc *model.DocumentModel) (any, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	switch rule.ExtractionType {
	case model.TypeTable:
		return resolveTable(rule.Location, doc)
	case model.TypeKeyValue:
		return resolveKeyValue(rule.Location, doc), nil
	case model.TypePosition:
		return resolvePosition(rule.Location, doc), nil
	case model.TypePattern:
		return resolvePattern(rule.Location, doc), nil
	}
	return nil, common.ResolutionError(fmt.Sprintf("unknown extractionType %q", rule.ExtractionType))
}

// Resolver applies whole templates to documents.
type Resolver struct {
	log *slog.Logger
}

func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{log: logger}
}

// ResolveTemplate resolves every field of the template against the document.
// Field order is deterministic (sorted by name); identical inputs produce
// identical results.
func (r *Resolver) ResolveTemplate(tpl *model.Template, doc *model.DocumentModel) *Result {
	start := time.Now()
	res := &Result{Values: make(map[string]any)}

	names := slices.Sorted(maps.Keys(tpl.Fields))
	for _, name := range names {
		rule := tpl.Fields[name]
		raw, err := Resolve(rule, doc)
		if err != nil {
			res.FieldErrors = append(res.FieldErrors, FieldError{
				Field: name, Code: "RESOLUTION_ERROR", Err: err, Row: -1,
			})
			continue
		}

		// columnMapping rules emit one record per row instead of a value.
		if rows, ok := raw.([]map[string]string); ok {
			r.appendRecords(res, rule, rows)
			continue
		}

		if raw == nil {
			if rule.Required {
				res.FieldErrors = append(res.FieldErrors, FieldError{
					Field: name, Code: "MISSING_REQUIRED",
					Err: fmt.Errorf("required field resolved to no value"), Row: -1,
				})
			} else {
				res.Values[name] = nil
			}
			continue
		}

		val, cerr := coerce(raw, rule)
		if cerr != nil {
			if rule.Required {
				res.FieldErrors = append(res.FieldErrors, FieldError{
					Field: name, Code: "VALIDATION_ERROR", Err: cerr, Row: -1,
				})
				continue
			}
			val = raw // degrade to the raw string for non-required fields
		}
		res.Values[name] = val
	}

	r.log.Info("resolve.template.done",
		"template", tpl.Name,
		"fields", len(names),
		"records", len(res.Records),
		"field_errors", len(res.FieldErrors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// appendRecords coerces each row cell with the parent rule's data type; a bad
// cell in one row never discards the rest of the record set.
func (r *Resolver) appendRecords(res *Result, rule model.ExtractionRule, rows []map[string]string) {
	for i, row := range rows {
		rec := make(map[string]any, len(row))
		for f, cell := range row {
			val, cerr := coerce(cell, rule)
			if cerr != nil {
				if rule.Required {
					res.FieldErrors = append(res.FieldErrors, FieldError{
						Field: f, Code: "VALIDATION_ERROR", Err: cerr, Row: i,
					})
					continue
				}
				val = cell
			}
			rec[f] = val
		}
		res.Records = append(res.Records, rec)
	}
}
