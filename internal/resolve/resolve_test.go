package resolve

import (
	"reflect"
	"testing"

	"github.com/docforge/docforge/internal/model"
)

func intPtr(i int) *int { return &i }

func invoiceDoc() *model.DocumentModel {
	return &model.DocumentModel{
		Tables: []model.Table{
			{
				Page: 1, Rows: 4, Columns: 3,
				Data: [][]string{
					{"Brand", "Vendor", "Cases"},
					{"Acme", "North Co", "1,204"},
					{"Zenith", "South Co", "88"},
					{"Orbit", "West Co", "312"},
				},
			},
		},
		KeyValuePairs: []model.KeyValuePair{
			{Key: "Report Month", Value: "2024-01", Page: 1},
			{Key: "Prepared By", Value: "J. Smith", Page: 1},
		},
		TextBlocks: []model.TextBlock{
			{Text: "Invoice #4471 issued for review", BlockType: "paragraph", Page: 1,
				BoundingBox: model.BoundingBox{Top: 0.1, Left: 0.1, Width: 0.5, Height: 0.05}},
			{Text: "Subtotal due: 512.40", BlockType: "paragraph", Page: 1,
				BoundingBox: model.BoundingBox{Top: 0.8, Left: 0.1, Width: 0.5, Height: 0.05}},
		},
		FullText: "Invoice #4471 issued for review Subtotal due: 512.40",
	}
}

func TestResolveKeyValue(t *testing.T) {
	doc := invoiceDoc()
	tests := []struct {
		name string
		loc  model.Location
		want any
	}{
		{"exact key", model.Location{KeyName: "Report Month"}, "2024-01"},
		{"case-insensitive key", model.Location{KeyName: "report month"}, "2024-01"},
		{"regex key", model.Location{KeyPattern: `prepared\s+by`}, "J. Smith"},
		{"no match", model.Location{KeyName: "Due Date"}, nil},
	}
	for _, tt := range tests {
		got, err := Resolve(model.ExtractionRule{ExtractionType: model.TypeKeyValue, Location: tt.loc}, doc)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResolveTableHeaderMatch(t *testing.T) {
	doc := invoiceDoc()
	rule := model.ExtractionRule{
		ExtractionType: model.TypeTable,
		Location: model.Location{
			TableIndex:     intPtr(0),
			SearchStrategy: model.SearchHeaderMatch,
			HeaderName:     "vendor",
		},
	}
	got, err := Resolve(rule, doc)
	if err != nil {
		t.Fatal(err)
	}
	if got != "North Co" {
		t.Fatalf("got %v, want North Co", got)
	}

	// tableIndex beyond the document is not-found, not an error
	rule.Location.TableIndex = intPtr(5)
	got, err = Resolve(rule, doc)
	if err != nil || got != nil {
		t.Fatalf("out-of-range table: got (%v, %v), want (nil, nil)", got, err)
	}
}

func TestResolveTableCellWithText(t *testing.T) {
	doc := invoiceDoc()
	rule := model.ExtractionRule{
		ExtractionType: model.TypeTable,
		Location: model.Location{
			TableIndex:     intPtr(0),
			SearchStrategy: model.SearchCellWithText,
			SearchText:     "zenith",
		},
	}
	got, err := Resolve(rule, doc)
	if err != nil {
		t.Fatal(err)
	}
	if got != "South Co" {
		t.Fatalf("got %v, want South Co", got)
	}
}

func TestResolveTableColumnMapping(t *testing.T) {
	doc := invoiceDoc()
	tpl := &model.Template{
		Name: "cases",
		Fields: map[string]model.ExtractionRule{
			"rows": {
				ExtractionType: model.TypeTable,
				Location: model.Location{
					TableIndex:    intPtr(0),
					ColumnMapping: map[string]int{"brand": 0, "cases": 2},
				},
			},
		},
	}
	res := New(nil).ResolveTemplate(tpl, doc)
	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}
	for i, rec := range res.Records {
		if rec["brand"] == "" || rec["cases"] == "" {
			t.Errorf("record %d missing values: %+v", i, rec)
		}
	}
	if res.Records[0]["brand"] != "Acme" || res.Records[0]["cases"] != "1,204" {
		t.Fatalf("first record wrong: %+v", res.Records[0])
	}
}

func TestResolvePosition(t *testing.T) {
	doc := invoiceDoc()
	rule := model.ExtractionRule{
		ExtractionType: model.TypePosition,
		Location: model.Location{
			Page:        intPtr(1),
			BoundingBox: &model.BoundingBox{Top: 0.75, Left: 0.0, Width: 1.0, Height: 0.2},
		},
	}
	got, err := Resolve(rule, doc)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Subtotal due: 512.40" {
		t.Fatalf("got %v", got)
	}
}

func TestResolvePositionConcatenatesBlocks(t *testing.T) {
	// Every block overlapping the box by at least half its own area joins
	// the result, concatenated in document order.
	doc := invoiceDoc()
	rule := model.ExtractionRule{
		ExtractionType: model.TypePosition,
		Location: model.Location{
			Page:        intPtr(1),
			BoundingBox: &model.BoundingBox{Top: 0, Left: 0, Width: 1, Height: 1},
		},
	}
	got, err := Resolve(rule, doc)
	if err != nil {
		t.Fatal(err)
	}
	want := "Invoice #4471 issued for review Subtotal due: 512.40"
	if got != want {
		t.Fatalf("got %v, want %q", got, want)
	}
}

func TestResolvePattern(t *testing.T) {
	doc := invoiceDoc()
	rule := model.ExtractionRule{
		ExtractionType: model.TypePattern,
		Location:       model.Location{SearchText: "Invoice", Pattern: `#(\d+)`},
	}
	got, err := Resolve(rule, doc)
	if err != nil {
		t.Fatal(err)
	}
	if got != "4471" {
		t.Fatalf("got %v, want 4471", got)
	}

	// zero matches yields nil, never an error
	rule.Location.Pattern = `order:(\d+)`
	got, err = Resolve(rule, doc)
	if err != nil || got != nil {
		t.Fatalf("no-match pattern: got (%v, %v), want (nil, nil)", got, err)
	}
}

func TestCoercion(t *testing.T) {
	doc := invoiceDoc()
	tpl := &model.Template{
		Name: "coerce",
		Fields: map[string]model.ExtractionRule{
			"subtotal": {
				ExtractionType: model.TypePattern,
				Location:       model.Location{SearchText: "Subtotal", Pattern: `due:\s*([\d.,]+)`},
				DataType:       model.DataNumber,
			},
			"month": {
				ExtractionType: model.TypeKeyValue,
				Location:       model.Location{KeyName: "Report Month"},
				DataType:       model.DataDate,
			},
		},
	}
	res := New(nil).ResolveTemplate(tpl, doc)
	if len(res.FieldErrors) != 0 {
		t.Fatalf("unexpected field errors: %v", res.FieldErrors)
	}
	if res.Values["subtotal"] != 512.40 {
		t.Fatalf("subtotal = %v, want 512.4", res.Values["subtotal"])
	}
	// "2024-01" is not a full ISO date: date coercion fails open to the raw string
	if res.Values["month"] != "2024-01" {
		t.Fatalf("month = %v, want raw string", res.Values["month"])
	}
}

func TestCoercionNumberWithThousands(t *testing.T) {
	got, err := coerce("1,204", model.ExtractionRule{DataType: model.DataNumber})
	if err != nil {
		t.Fatal(err)
	}
	if got != 1204.0 {
		t.Fatalf("got %v, want 1204", got)
	}
}

func TestCoercionBoolean(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"checked", true, false},
		{"1", true, false},
		{"no", false, false},
		{"unchecked", false, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := coerce(tt.in, model.ExtractionRule{DataType: model.DataBoolean})
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRequiredFieldReporting(t *testing.T) {
	doc := invoiceDoc()
	tpl := &model.Template{
		Name: "required",
		Fields: map[string]model.ExtractionRule{
			"missing": {
				ExtractionType: model.TypeKeyValue,
				Location:       model.Location{KeyName: "Nonexistent"},
				Required:       true,
			},
			"bad_number": {
				ExtractionType: model.TypeKeyValue,
				Location:       model.Location{KeyName: "Prepared By"},
				DataType:       model.DataNumber,
				Required:       true,
			},
			"present": {
				ExtractionType: model.TypeKeyValue,
				Location:       model.Location{KeyName: "Report Month"},
			},
		},
	}
	res := New(nil).ResolveTemplate(tpl, doc)

	if res.Values["present"] != "2024-01" {
		t.Fatalf("successful field discarded: %v", res.Values)
	}
	codes := map[string]string{}
	for _, fe := range res.FieldErrors {
		codes[fe.Field] = fe.Code
	}
	if codes["missing"] != "MISSING_REQUIRED" {
		t.Errorf("missing required field not reported: %v", codes)
	}
	if codes["bad_number"] != "VALIDATION_ERROR" {
		t.Errorf("coercion failure on required field not reported: %v", codes)
	}
}

func TestNonRequiredCoercionDegrades(t *testing.T) {
	doc := invoiceDoc()
	tpl := &model.Template{
		Name: "degrade",
		Fields: map[string]model.ExtractionRule{
			"soft": {
				ExtractionType: model.TypeKeyValue,
				Location:       model.Location{KeyName: "Prepared By"},
				DataType:       model.DataNumber,
			},
		},
	}
	res := New(nil).ResolveTemplate(tpl, doc)
	if len(res.FieldErrors) != 0 {
		t.Fatalf("non-required coercion failure must not error: %v", res.FieldErrors)
	}
	if res.Values["soft"] != "J. Smith" {
		t.Fatalf("expected raw string degradation, got %v", res.Values["soft"])
	}
}

func TestResolveDeterminism(t *testing.T) {
	doc := invoiceDoc()
	tpl := &model.Template{
		Name: "det",
		Fields: map[string]model.ExtractionRule{
			"month": {ExtractionType: model.TypeKeyValue, Location: model.Location{KeyName: "Report Month"}},
			"vendor": {ExtractionType: model.TypeTable, Location: model.Location{
				TableIndex: intPtr(0), SearchStrategy: model.SearchHeaderMatch, HeaderName: "Vendor"}},
			"invoice": {ExtractionType: model.TypePattern, Location: model.Location{
				SearchText: "Invoice", Pattern: `#(\d+)`}},
		},
	}
	r := New(nil)
	a := r.ResolveTemplate(tpl, doc)
	b := r.ResolveTemplate(tpl, doc)
	if !reflect.DeepEqual(a.Values, b.Values) || !reflect.DeepEqual(a.Records, b.Records) {
		t.Fatalf("resolution is not deterministic:\n%v\n%v", a, b)
	}
}
