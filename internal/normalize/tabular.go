package normalize

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/model"
)

// normalizeCSV wraps the whole file into a single table on page 1.
func (s *Service) normalizeCSV(raw []byte) (*model.DocumentModel, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1 // ragged rows are common in exported reports
	records, err := r.ReadAll()
	if err != nil {
		return nil, common.NormalizationError("unparsable CSV", err)
	}
	if len(records) == 0 {
		return nil, common.NormalizationError("CSV contains no rows", nil)
	}

	t := model.Table{Page: 1, Rows: len(records), Data: records}
	for _, row := range records {
		if len(row) > t.Columns {
			t.Columns = len(row)
		}
	}
	return &model.DocumentModel{
		Tables:   []model.Table{t},
		FullText: collapseWhitespace(string(raw)),
	}, nil
}

// normalizeXLSX emits one table per non-empty sheet, sheet order preserved;
// the sheet index doubles as the page number.
func (s *Service) normalizeXLSX(raw []byte) (*model.DocumentModel, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, common.NormalizationError("unparsable XLSX workbook", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.log.Warn("normalize.xlsx.close_error", "error", cerr)
		}
	}()

	doc := &model.DocumentModel{}
	var text strings.Builder
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, common.NormalizationError("reading sheet "+sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		t := model.Table{Page: i + 1, Rows: len(rows), Data: rows}
		for _, row := range rows {
			if len(row) > t.Columns {
				t.Columns = len(row)
			}
			text.WriteString(strings.Join(row, " "))
			text.WriteString(" ")
		}
		doc.Tables = append(doc.Tables, t)
	}
	if len(doc.Tables) == 0 {
		return nil, common.NormalizationError("workbook contains no data", nil)
	}
	doc.FullText = collapseWhitespace(text.String())
	return doc, nil
}
