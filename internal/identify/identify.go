// Package identify routes repeating tables in a multi-entity document to the
// entity sections they belong to.
package identify

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/docforge/docforge/constants"
	"github.com/docforge/docforge/internal/model"
)

// Signature describes what an entity's tables look like: an ordered set of
// expected header tokens, optionally preceded by an anchor label appearing
// above the table.
type Signature struct {
	HeaderTokens []string `json:"headerTokens"`
	AnchorText   string   `json:"anchorText,omitempty"`
}

// Warning is surfaced as metadata, never a failure: a table nobody claimed or
// an entity no table matched.
type Warning struct {
	Code    string `json:"code"` // UNASSIGNED_TABLE | UNMATCHED_ENTITY
	Entity  string `json:"entity,omitempty"`
	Table   int    `json:"table,omitempty"`
	Message string `json:"message"`
}

// Assignment maps entity names to the (possibly repeating) tables assigned to
// them. TableEntity is the inverse view, indexed by table position.
type Assignment struct {
	Entities    map[string][]int `json:"entities"`
	TableEntity map[int]string   `json:"tableEntity"`
	Scores      map[int]float64  `json:"scores"`
	Warnings    []Warning        `json:"warnings,omitempty"`
}

// Identifier scores tables against entity signatures.
type Identifier struct {
	threshold   float64
	anchorBonus float64
	log         *slog.Logger
}

func New(threshold, anchorBonus float64, logger *slog.Logger) *Identifier {
	if threshold <= 0 {
		threshold = constants.TableMatchThreshold
	}
	if anchorBonus <= 0 {
		anchorBonus = constants.AnchorBonus
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Identifier{threshold: threshold, anchorBonus: anchorBonus, log: logger}
}

// Identify assigns each table to the entity with the highest signature score
// above the threshold. Each entity may claim zero, one, or many tables. Ties
// break by earliest page-then-position order of the signature iteration
// (entity names sorted for determinism).
func (id *Identifier) Identify(doc *model.DocumentModel, signatures map[string]Signature) *Assignment {
	out := &Assignment{
		Entities:    make(map[string][]int),
		TableEntity: make(map[int]string),
		Scores:      make(map[int]float64),
	}
	entityNames := slices.Sorted(maps.Keys(signatures))

	// Tables in page-then-position order so tie-breaks are stable.
	order := make([]int, len(doc.Tables))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := doc.Tables[order[a]], doc.Tables[order[b]]
		if ta.Page != tb.Page {
			return ta.Page < tb.Page
		}
		if ta.BoundingBox.Top != tb.BoundingBox.Top {
			return ta.BoundingBox.Top < tb.BoundingBox.Top
		}
		return order[a] < order[b]
	})

	for _, ti := range order {
		table := doc.Tables[ti]
		best, bestScore := "", 0.0
		for _, name := range entityNames {
			score := id.score(doc, table, signatures[name])
			if score > bestScore {
				best, bestScore = name, score
			}
		}
		out.Scores[ti] = bestScore
		if best == "" || bestScore < id.threshold {
			out.Warnings = append(out.Warnings, Warning{
				Code:    "UNASSIGNED_TABLE",
				Table:   ti,
				Message: fmt.Sprintf("table %d scored below threshold %.2f for all entities", ti, id.threshold),
			})
			continue
		}
		out.Entities[best] = append(out.Entities[best], ti)
		out.TableEntity[ti] = best
	}

	for _, name := range entityNames {
		if len(out.Entities[name]) == 0 {
			out.Warnings = append(out.Warnings, Warning{
				Code:    "UNMATCHED_ENTITY",
				Entity:  name,
				Message: fmt.Sprintf("no table matched entity %q", name),
			})
		}
	}

	id.log.Info("identify.done",
		"tables", len(doc.Tables),
		"entities", len(signatures),
		"assigned", len(out.TableEntity),
		"warnings", len(out.Warnings),
	)
	return out
}

// score is the fraction of signature tokens found (case-insensitive substring
// match) among the table's header cells, plus the anchor bonus when the
// anchor text appears in the nearest preceding text block on the same page.
func (id *Identifier) score(doc *model.DocumentModel, table model.Table, sig Signature) float64 {
	if len(sig.HeaderTokens) == 0 {
		return 0
	}
	header := table.HeaderRow()
	found := 0
	for _, token := range sig.HeaderTokens {
		for _, cell := range header {
			if strings.Contains(strings.ToLower(cell), strings.ToLower(token)) {
				found++
				break
			}
		}
	}
	score := float64(found) / float64(len(sig.HeaderTokens))

	if sig.AnchorText != "" && anchorPrecedes(doc, table, sig.AnchorText) {
		score += id.anchorBonus
	}
	return score
}

// anchorPrecedes reports whether the nearest text block above the table on
// the same page contains the anchor text.
func anchorPrecedes(doc *model.DocumentModel, table model.Table, anchor string) bool {
	var nearest *model.TextBlock
	for i := range doc.TextBlocks {
		tb := &doc.TextBlocks[i]
		if tb.Page != table.Page {
			continue
		}
		if tb.BoundingBox.Top > table.BoundingBox.Top {
			continue
		}
		if nearest == nil || tb.BoundingBox.Top > nearest.BoundingBox.Top {
			nearest = tb
		}
	}
	return nearest != nil &&
		strings.Contains(strings.ToLower(nearest.Text), strings.ToLower(anchor))
}
