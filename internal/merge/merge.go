// Package merge reconciles user corrections into a template's rule set
// without touching unrelated fields.
package merge

import (
	"fmt"
	"log/slog"

	"github.com/docforge/docforge/constants"
	"github.com/docforge/docforge/internal/model"
)

// Warning reports a correction that could not be applied (unknown field).
type Warning struct {
	FieldName string `json:"fieldName"`
	RowIndex  int    `json:"rowIndex"`
	Message   string `json:"message"`
}

// Engine applies correction batches to template snapshots.
type Engine struct {
	floor float64
	log   *slog.Logger
}

func New(confidenceFloor float64, logger *slog.Logger) *Engine {
	if confidenceFloor < 0 {
		confidenceFloor = constants.ConfidenceFloor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{floor: confidenceFloor, log: logger}
}

// Apply merges a batch of corrections into a copy of the template; the input
// template is never mutated. Corrections to different fields are independent
// and order-insensitive, and the merge is idempotent: a correction is
// effective only while the rule's sampleValue still disagrees with the
// corrected value, so re-applying the same batch is a no-op.
func (e *Engine) Apply(tpl *model.Template, corrections []model.CorrectionRecord) (*model.Template, []Warning) {
	out := tpl.Clone()
	var warnings []Warning

	// Bucket corrections per field so frequency drives the decay.
	byField := make(map[string][]model.CorrectionRecord)
	for _, c := range corrections {
		if _, ok := out.Fields[c.FieldName]; !ok {
			warnings = append(warnings, Warning{
				FieldName: c.FieldName,
				RowIndex:  c.RowIndex,
				Message:   fmt.Sprintf("correction references unknown field %q", c.FieldName),
			})
			continue
		}
		byField[c.FieldName] = append(byField[c.FieldName], c)
	}

	for field, batch := range byField {
		rule := out.Fields[field]
		// Last correction in batch order wins for the sample value. A batch
		// whose winner already matches the rule is a no-op for the field,
		// which keeps repeated applies of the same batch idempotent.
		winner := batch[len(batch)-1].NewValue
		if rule.SampleValue == winner {
			continue
		}
		rule.SampleValue = winner

		// More corrections for a field mean less trust in its rule; decay is
		// monotonic in the correction count and clamped at the floor.
		n := len(batch)
		decayed := rule.Confidence / float64(1+n)
		if decayed < e.floor {
			decayed = e.floor
		}
		if decayed < rule.Confidence {
			rule.Confidence = decayed
		}
		out.Fields[field] = rule

		e.log.Info("merge.field.updated",
			"template", tpl.Name,
			"field", field,
			"corrections", n,
			"confidence", rule.Confidence,
		)
	}

	if len(warnings) > 0 {
		e.log.Warn("merge.unknown_fields", "template", tpl.Name, "count", len(warnings))
	}
	return out, warnings
}
