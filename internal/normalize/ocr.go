package normalize

import (
	"encoding/json"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/model"
)

// ocrAnalysis mirrors the fixed schema the upstream OCR service returns.
// Tables, key-value pairs and text blocks pass through page- and
// bounding-box-tagged; we do not reinterpret geometry here.
type ocrAnalysis struct {
	Tables        []model.Table        `json:"tables"`
	KeyValuePairs []model.KeyValuePair `json:"keyValuePairs"`
	TextBlocks    []model.TextBlock    `json:"textBlocks"`
}

func (s *Service) normalizeOCR(raw []byte) (*model.DocumentModel, error) {
	var a ocrAnalysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, common.NormalizationError("unparsable OCR analysis JSON", err)
	}
	if len(a.Tables) == 0 && len(a.KeyValuePairs) == 0 && len(a.TextBlocks) == 0 {
		return nil, common.NormalizationError("OCR analysis contains no tables, pairs, or text blocks", nil)
	}

	doc := &model.DocumentModel{
		Tables:        a.Tables,
		KeyValuePairs: a.KeyValuePairs,
		TextBlocks:    a.TextBlocks,
	}
	// Derive table row/column counts when the upstream omitted them.
	for i := range doc.Tables {
		t := &doc.Tables[i]
		if t.Rows == 0 {
			t.Rows = len(t.Data)
		}
		if t.Columns == 0 {
			for _, row := range t.Data {
				if len(row) > t.Columns {
					t.Columns = len(row)
				}
			}
		}
	}
	return doc, nil
}
