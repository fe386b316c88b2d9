package model

import (
	"encoding/json"
	"testing"
)

func intPtr(i int) *int { return &i }

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    ExtractionRule
		wantErr bool
	}{
		{
			name: "valid table header_match",
			rule: ExtractionRule{
				ExtractionType: TypeTable,
				Location: Location{
					TableIndex:     intPtr(0),
					SearchStrategy: SearchHeaderMatch,
					HeaderName:     "Total",
				},
			},
		},
		{
			name: "valid table columnMapping",
			rule: ExtractionRule{
				ExtractionType: TypeTable,
				Location: Location{
					TableIndex:    intPtr(1),
					ColumnMapping: map[string]int{"brand": 0, "cases": 2},
				},
			},
		},
		{
			name:    "table missing tableIndex",
			rule:    ExtractionRule{ExtractionType: TypeTable},
			wantErr: true,
		},
		{
			name: "table with keyValue fields",
			rule: ExtractionRule{
				ExtractionType: TypeTable,
				Location:       Location{TableIndex: intPtr(0), KeyName: "Total"},
			},
			wantErr: true,
		},
		{
			name: "valid keyValue by name",
			rule: ExtractionRule{
				ExtractionType: TypeKeyValue,
				Location:       Location{KeyName: "Report Month"},
			},
		},
		{
			name: "keyValue bad regex",
			rule: ExtractionRule{
				ExtractionType: TypeKeyValue,
				Location:       Location{KeyPattern: "("},
			},
			wantErr: true,
		},
		{
			name:    "keyValue missing both keys",
			rule:    ExtractionRule{ExtractionType: TypeKeyValue},
			wantErr: true,
		},
		{
			name: "valid position",
			rule: ExtractionRule{
				ExtractionType: TypePosition,
				Location: Location{
					Page:        intPtr(1),
					BoundingBox: &BoundingBox{Top: 0.1, Left: 0.1, Width: 0.3, Height: 0.1},
				},
			},
		},
		{
			name: "position box out of range",
			rule: ExtractionRule{
				ExtractionType: TypePosition,
				Location: Location{
					Page:        intPtr(1),
					BoundingBox: &BoundingBox{Top: 1.5, Left: 0, Width: 0.2, Height: 0.2},
				},
			},
			wantErr: true,
		},
		{
			name: "valid pattern",
			rule: ExtractionRule{
				ExtractionType: TypePattern,
				Location:       Location{SearchText: "Invoice", Pattern: `#\s*(\d+)`},
			},
		},
		{
			name: "pattern with two capture groups",
			rule: ExtractionRule{
				ExtractionType: TypePattern,
				Location:       Location{SearchText: "Invoice", Pattern: `(\d+)-(\d+)`},
			},
			wantErr: true,
		},
		{
			name: "pattern with zero capture groups",
			rule: ExtractionRule{
				ExtractionType: TypePattern,
				Location:       Location{SearchText: "Invoice", Pattern: `\d+`},
			},
			wantErr: true,
		},
		{
			name:    "unknown extraction type",
			rule:    ExtractionRule{ExtractionType: "fuzzy"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		err := tt.rule.Validate()
		if tt.wantErr && err == nil {
			t.Errorf("%s: expected error, got none", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
	}
}

func TestRuleUnmarshalRejectsBadShape(t *testing.T) {
	// A keyValue rule carrying table location fields must fail at parse time.
	raw := `{"extractionType":"keyValue","location":{"keyName":"Total","tableIndex":2},"dataType":"string"}`
	var r ExtractionRule
	if err := json.Unmarshal([]byte(raw), &r); err == nil {
		t.Fatal("expected parse-time rejection of mixed location shape")
	}

	good := `{"extractionType":"keyValue","location":{"keyName":"Total"},"dataType":"number","required":true}`
	if err := json.Unmarshal([]byte(good), &r); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
	if r.DataType != DataNumber || !r.Required {
		t.Fatalf("rule decoded incorrectly: %+v", r)
	}
}
