package resolve

import (
	"strings"

	"github.com/docforge/docforge/internal/model"
)

// resolveTable handles all three table search strategies. A tableIndex beyond
// the document's tables is "not found", not an error: the same template is
// applied to arbitrary document instances.
func resolveTable(loc model.Location, doc *model.DocumentModel) (any, error) {
	ti := *loc.TableIndex
	if ti >= len(doc.Tables) {
		return nil, nil
	}
	table := doc.Tables[ti]
	if len(table.Data) == 0 {
		return nil, nil
	}

	if len(loc.ColumnMapping) > 0 {
		return tableRecords(loc, table), nil
	}

	switch loc.SearchStrategy {
	case model.SearchHeaderMatch:
		return headerMatch(loc, table), nil
	case model.SearchPosition, "":
		return positionCells(loc, table), nil
	case model.SearchCellWithText:
		return cellWithText(loc, table), nil
	}
	return nil, nil
}

// tableRecords emits one record per data row, mapping each field name to its
// column index. Row 0 is treated as the header and skipped.
func tableRecords(loc model.Location, table model.Table) []map[string]string {
	rows := table.Data[1:]
	if len(loc.RowRange) == 2 {
		rows = clampRows(rows, loc.RowRange[0], loc.RowRange[1])
	}

	var out []map[string]string
	for _, row := range rows {
		rec := make(map[string]string, len(loc.ColumnMapping))
		for field, col := range loc.ColumnMapping {
			if col >= 0 && col < len(row) {
				rec[field] = strings.TrimSpace(row[col])
			} else {
				rec[field] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// headerMatch finds the column whose header cell contains headerName
// (case-insensitive substring, first match wins) and returns the cell(s)
// below it.
func headerMatch(loc model.Location, table model.Table) any {
	col := -1
	for j, h := range table.HeaderRow() {
		if containsFold(h, loc.HeaderName) {
			col = j
			break
		}
	}
	if col < 0 {
		return nil
	}

	rows := table.Data[1:]
	if len(loc.RowRange) == 2 {
		cells := columnCells(clampRows(rows, loc.RowRange[0], loc.RowRange[1]), col)
		if len(cells) == 0 {
			return nil
		}
		return cells
	}
	for _, row := range rows {
		if col < len(row) && strings.TrimSpace(row[col]) != "" {
			return strings.TrimSpace(row[col])
		}
	}
	return nil
}

// positionCells addresses cells by fixed columnIndex and absolute rowRange
// into the table data (header row included in the numbering).
func positionCells(loc model.Location, table model.Table) any {
	if loc.ColumnIndex == nil {
		return nil
	}
	col := *loc.ColumnIndex

	rows := table.Data
	if len(loc.RowRange) == 2 {
		rows = clampRows(rows, loc.RowRange[0], loc.RowRange[1])
	}
	cells := columnCells(rows, col)
	switch len(cells) {
	case 0:
		return nil
	case 1:
		return cells[0]
	}
	return cells
}

// cellWithText scans all cells for searchText and returns the sibling cell at
// the rule's offset within the same row (default: the next cell).
func cellWithText(loc model.Location, table model.Table) any {
	offset := 1
	if loc.CellOffset != nil {
		offset = *loc.CellOffset
	}
	for _, row := range table.Data {
		for j, cell := range row {
			if !containsFold(cell, loc.SearchText) {
				continue
			}
			k := j + offset
			if k >= 0 && k < len(row) {
				return strings.TrimSpace(row[k])
			}
			return nil
		}
	}
	return nil
}

func clampRows(rows [][]string, start, end int) [][]string {
	if start < 0 {
		start = 0
	}
	if end >= len(rows) {
		end = len(rows) - 1
	}
	if start > end {
		return nil
	}
	return rows[start : end+1]
}

func columnCells(rows [][]string, col int) []string {
	var cells []string
	for _, row := range rows {
		if col >= 0 && col < len(row) {
			cells = append(cells, strings.TrimSpace(row[col]))
		}
	}
	return cells
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
