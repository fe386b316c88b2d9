package model

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/docforge/docforge/internal/common"
)

// ExtractionType selects the resolver strategy for a field.
type ExtractionType string

const (
	TypeTable    ExtractionType = "table"
	TypeKeyValue ExtractionType = "keyValue"
	TypePosition ExtractionType = "position"
	TypePattern  ExtractionType = "pattern"
)

// DataType is the target type a resolved raw string is coerced to.
type DataType string

const (
	DataString  DataType = "string"
	DataNumber  DataType = "number"
	DataDate    DataType = "date"
	DataBoolean DataType = "boolean"
	DataArray   DataType = "array"
)

// SearchStrategy selects how a table rule locates its column/cell.
type SearchStrategy string

const (
	SearchHeaderMatch  SearchStrategy = "header_match"
	SearchPosition     SearchStrategy = "position"
	SearchCellWithText SearchStrategy = "find_cell_with_text"
)

// Location is the tagged variant behind ExtractionRule.location. Which fields
// may be set is fully determined by the rule's extractionType; Validate
// rejects any other combination.
type Location struct {
	// table
	TableIndex     *int           `json:"tableIndex,omitempty"`
	SearchStrategy SearchStrategy `json:"searchStrategy,omitempty"`
	SearchText     string         `json:"searchText,omitempty"`
	HeaderName     string         `json:"headerName,omitempty"`
	RowRange       []int          `json:"rowRange,omitempty"`
	ColumnIndex    *int           `json:"columnIndex,omitempty"`
	ColumnMapping  map[string]int `json:"columnMapping,omitempty"`
	CellOffset     *int           `json:"cellOffset,omitempty"`

	// keyValue
	KeyName    string `json:"keyName,omitempty"`
	KeyPattern string `json:"keyPattern,omitempty"`

	// position
	Page        *int         `json:"page,omitempty"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`

	// pattern
	Pattern string `json:"pattern,omitempty"`
}

// ExtractionRule encodes one field's extraction strategy and location.
type ExtractionRule struct {
	ExtractionType ExtractionType `json:"extractionType"`
	Location       Location       `json:"location"`
	DataType       DataType       `json:"dataType"`
	Required       bool           `json:"required"`
	Pattern        string         `json:"pattern,omitempty"`
	SampleValue    string         `json:"sampleValue,omitempty"`
	Confidence     float64        `json:"confidence,omitempty"`
	Description    string         `json:"description,omitempty"`
}

// UnmarshalJSON enforces the location shape at parse time so a malformed rule
// never reaches a resolver.
func (r *ExtractionRule) UnmarshalJSON(data []byte) error {
	type alias ExtractionRule
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = ExtractionRule(a)
	return r.Validate()
}

// Validate checks the rule's internal consistency: known type tags and a
// location shape matching the extraction type.
func (r *ExtractionRule) Validate() error {
	switch r.ExtractionType {
	case TypeTable, TypeKeyValue, TypePosition, TypePattern:
	default:
		return common.ResolutionError(fmt.Sprintf("unknown extractionType %q", r.ExtractionType))
	}
	switch r.DataType {
	case "", DataString, DataNumber, DataDate, DataBoolean, DataArray:
	default:
		return common.ResolutionError(fmt.Sprintf("unknown dataType %q", r.DataType))
	}
	if r.Pattern != "" {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return common.ResolutionError(fmt.Sprintf("invalid pattern: %v", err))
		}
	}
	return r.Location.validate(r.ExtractionType)
}

func (l *Location) validate(et ExtractionType) error {
	switch et {
	case TypeTable:
		if l.TableIndex == nil || *l.TableIndex < 0 {
			return common.ResolutionError("table location requires a non-negative tableIndex")
		}
		switch l.SearchStrategy {
		case "", SearchHeaderMatch, SearchPosition, SearchCellWithText:
		default:
			return common.ResolutionError(fmt.Sprintf("unknown searchStrategy %q", l.SearchStrategy))
		}
		if l.SearchStrategy == SearchHeaderMatch && l.HeaderName == "" && len(l.ColumnMapping) == 0 {
			return common.ResolutionError("header_match requires headerName")
		}
		if l.SearchStrategy == SearchCellWithText && l.SearchText == "" {
			return common.ResolutionError("find_cell_with_text requires searchText")
		}
		if len(l.RowRange) != 0 && len(l.RowRange) != 2 {
			return common.ResolutionError("rowRange must be [start,end]")
		}
		if l.KeyName != "" || l.KeyPattern != "" || l.Page != nil || l.BoundingBox != nil || l.Pattern != "" {
			return common.ResolutionError("table location carries fields of another extractionType")
		}
	case TypeKeyValue:
		if l.KeyName == "" && l.KeyPattern == "" {
			return common.ResolutionError("keyValue location requires keyName or keyPattern")
		}
		if l.KeyPattern != "" {
			if _, err := regexp.Compile(l.KeyPattern); err != nil {
				return common.ResolutionError(fmt.Sprintf("invalid keyPattern: %v", err))
			}
		}
		if l.TableIndex != nil || l.Page != nil || l.BoundingBox != nil || l.Pattern != "" || l.SearchText != "" {
			return common.ResolutionError("keyValue location carries fields of another extractionType")
		}
	case TypePosition:
		if l.Page == nil {
			return common.ResolutionError("position location requires page")
		}
		if l.BoundingBox == nil {
			return common.ResolutionError("position location requires boundingBox")
		}
		b := l.BoundingBox
		if b.Top < 0 || b.Left < 0 || b.Width <= 0 || b.Height <= 0 ||
			b.Top > 1 || b.Left > 1 || b.Width > 1 || b.Height > 1 {
			return common.ResolutionError("boundingBox must be 0..1 normalized with positive extent")
		}
		if l.TableIndex != nil || l.KeyName != "" || l.KeyPattern != "" || l.Pattern != "" || l.SearchText != "" {
			return common.ResolutionError("position location carries fields of another extractionType")
		}
	case TypePattern:
		if l.SearchText == "" {
			return common.ResolutionError("pattern location requires searchText")
		}
		if l.Pattern == "" {
			return common.ResolutionError("pattern location requires pattern")
		}
		re, err := regexp.Compile(l.Pattern)
		if err != nil {
			return common.ResolutionError(fmt.Sprintf("invalid pattern: %v", err))
		}
		if re.NumSubexp() != 1 {
			return common.ResolutionError("pattern must contain exactly one capture group")
		}
		if l.TableIndex != nil || l.KeyName != "" || l.KeyPattern != "" || l.Page != nil || l.BoundingBox != nil {
			return common.ResolutionError("pattern location carries fields of another extractionType")
		}
	}
	return nil
}
