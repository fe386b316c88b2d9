package identify

import (
	"testing"

	"github.com/docforge/docforge/internal/model"
)

func multiEntityDoc() *model.DocumentModel {
	return &model.DocumentModel{
		Tables: []model.Table{
			{
				Page: 1,
				BoundingBox: model.BoundingBox{Top: 0.2, Left: 0.1, Width: 0.8, Height: 0.2},
				Data: [][]string{
					{"Brand", "Vendor", "Cases"},
					{"Acme", "North Co", "120"},
				},
			},
			{
				Page: 1,
				BoundingBox: model.BoundingBox{Top: 0.6, Left: 0.1, Width: 0.8, Height: 0.2},
				Data: [][]string{
					{"State", "Month", "Revenue"},
					{"OH", "2024-01", "9,200"},
				},
			},
		},
		TextBlocks: []model.TextBlock{
			{Text: "Brand Shipments", Page: 1,
				BoundingBox: model.BoundingBox{Top: 0.15, Left: 0.1, Width: 0.3, Height: 0.03}},
			{Text: "State Revenue Summary", Page: 1,
				BoundingBox: model.BoundingBox{Top: 0.55, Left: 0.1, Width: 0.3, Height: 0.03}},
		},
	}
}

func TestIdentifyAssignsTablesToEntities(t *testing.T) {
	doc := multiEntityDoc()
	signatures := map[string]Signature{
		"brands": {HeaderTokens: []string{"Brand", "Vendor"}},
		"states": {HeaderTokens: []string{"State", "Revenue"}},
	}

	got := New(0, 0, nil).Identify(doc, signatures)

	if e := got.TableEntity[0]; e != "brands" {
		t.Errorf("table 0 assigned to %q, want brands", e)
	}
	if e := got.TableEntity[1]; e != "states" {
		t.Errorf("table 1 assigned to %q, want states", e)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", got.Warnings)
	}
}

func TestIdentifyAnchorBonus(t *testing.T) {
	doc := multiEntityDoc()
	id := New(0, 0, nil)

	withAnchor := id.score(doc, doc.Tables[0], Signature{
		HeaderTokens: []string{"Brand", "Vendor"},
		AnchorText:   "Brand Shipments",
	})
	withoutAnchor := id.score(doc, doc.Tables[0], Signature{
		HeaderTokens: []string{"Brand", "Vendor"},
	})
	if withAnchor <= withoutAnchor {
		t.Fatalf("anchor bonus not applied: %v vs %v", withAnchor, withoutAnchor)
	}
}

func TestIdentifyBelowThresholdWarns(t *testing.T) {
	doc := multiEntityDoc()
	signatures := map[string]Signature{
		"orders": {HeaderTokens: []string{"Order", "Quantity", "SKU"}},
	}

	got := New(0, 0, nil).Identify(doc, signatures)

	if len(got.TableEntity) != 0 {
		t.Fatalf("no table should match: %v", got.TableEntity)
	}
	var unassigned, unmatched int
	for _, w := range got.Warnings {
		switch w.Code {
		case "UNASSIGNED_TABLE":
			unassigned++
		case "UNMATCHED_ENTITY":
			unmatched++
		}
	}
	if unassigned != 2 {
		t.Errorf("got %d unassigned-table warnings, want 2", unassigned)
	}
	if unmatched != 1 {
		t.Errorf("got %d unmatched-entity warnings, want 1", unmatched)
	}
}

func TestIdentifyRepeatingSections(t *testing.T) {
	// The same entity may claim tables on several pages.
	doc := multiEntityDoc()
	doc.Tables = append(doc.Tables, model.Table{
		Page: 2,
		Data: [][]string{
			{"Brand", "Vendor", "Cases"},
			{"Orbit", "West Co", "55"},
		},
	})
	signatures := map[string]Signature{
		"brands": {HeaderTokens: []string{"Brand", "Vendor"}},
		"states": {HeaderTokens: []string{"State", "Revenue"}},
	}

	got := New(0, 0, nil).Identify(doc, signatures)
	if n := len(got.Entities["brands"]); n != 2 {
		t.Fatalf("brands claimed %d tables, want 2", n)
	}
}
