package merge

import (
	"reflect"
	"testing"

	"github.com/docforge/docforge/internal/model"
)

func sampleTemplate() *model.Template {
	return &model.Template{
		Name: "invoices",
		Fields: map[string]model.ExtractionRule{
			"total": {
				ExtractionType: model.TypeKeyValue,
				Location:       model.Location{KeyName: "Total"},
				SampleValue:    "100.00",
				Confidence:     0.9,
			},
			"vendor": {
				ExtractionType: model.TypeKeyValue,
				Location:       model.Location{KeyName: "Vendor"},
				SampleValue:    "Acme",
				Confidence:     0.8,
			},
		},
		Version: 3,
	}
}

func TestApplyUpdatesSampleAndDecaysConfidence(t *testing.T) {
	tpl := sampleTemplate()
	out, warnings := New(0.1, nil).Apply(tpl, []model.CorrectionRecord{
		{RowIndex: 0, FieldName: "total", OldValue: "100.00", NewValue: "120.00"},
	})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if got := out.Fields["total"].SampleValue; got != "120.00" {
		t.Fatalf("sampleValue = %q, want 120.00", got)
	}
	if got := out.Fields["total"].Confidence; got != 0.45 {
		t.Fatalf("confidence = %v, want 0.45", got)
	}
	// unrelated field untouched
	if !reflect.DeepEqual(out.Fields["vendor"], tpl.Fields["vendor"]) {
		t.Fatal("unrelated field was modified")
	}
	// input template never mutated
	if tpl.Fields["total"].SampleValue != "100.00" {
		t.Fatal("input template mutated")
	}
}

func TestApplyIdempotent(t *testing.T) {
	tpl := sampleTemplate()
	corrections := []model.CorrectionRecord{
		{RowIndex: 0, FieldName: "total", OldValue: "100.00", NewValue: "120.00"},
		{RowIndex: 1, FieldName: "vendor", OldValue: "Acme", NewValue: "Acme Corp"},
	}
	e := New(0.1, nil)

	once, _ := e.Apply(tpl, corrections)
	twice, _ := e.Apply(once, corrections)
	if !reflect.DeepEqual(once.Fields, twice.Fields) {
		t.Fatalf("merge not idempotent:\nonce:  %+v\ntwice: %+v", once.Fields, twice.Fields)
	}
}

func TestApplyConfidenceFloor(t *testing.T) {
	tpl := sampleTemplate()
	// Many corrections for one field drive confidence to the floor, not below.
	corrections := make([]model.CorrectionRecord, 0, 20)
	for i := 0; i < 20; i++ {
		corrections = append(corrections, model.CorrectionRecord{
			RowIndex: i, FieldName: "total", OldValue: "100.00", NewValue: "200.00",
		})
	}
	out, _ := New(0.1, nil).Apply(tpl, corrections)
	if got := out.Fields["total"].Confidence; got != 0.1 {
		t.Fatalf("confidence = %v, want floor 0.1", got)
	}
}

func TestApplyUnknownFieldWarns(t *testing.T) {
	tpl := sampleTemplate()
	out, warnings := New(0.1, nil).Apply(tpl, []model.CorrectionRecord{
		{RowIndex: 0, FieldName: "ghost", OldValue: "x", NewValue: "y"},
	})
	if len(warnings) != 1 || warnings[0].FieldName != "ghost" {
		t.Fatalf("expected one warning for ghost, got %v", warnings)
	}
	if !reflect.DeepEqual(out.Fields, tpl.Fields) {
		t.Fatal("unknown-field correction must not change any rule")
	}
}

func TestApplyFieldsIndependent(t *testing.T) {
	tpl := sampleTemplate()
	a := []model.CorrectionRecord{
		{FieldName: "total", NewValue: "120.00"},
		{FieldName: "vendor", NewValue: "Acme Corp"},
	}
	b := []model.CorrectionRecord{
		{FieldName: "vendor", NewValue: "Acme Corp"},
		{FieldName: "total", NewValue: "120.00"},
	}
	e := New(0.1, nil)
	outA, _ := e.Apply(tpl, a)
	outB, _ := e.Apply(tpl, b)
	if !reflect.DeepEqual(outA.Fields, outB.Fields) {
		t.Fatal("corrections to different fields must be order-insensitive")
	}
}
