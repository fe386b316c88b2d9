// Package normalize converts heterogeneous raw inputs (OCR analysis JSON,
// HTML, email, tabular files) into the canonical DocumentModel.
package normalize

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/docforge/docforge/constants"
	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/model"
)

// Service routes raw content to the normalizer registered for its file
// extension. Selection is by extension only, never content sniffing.
type Service struct {
	log *slog.Logger
}

func New(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{log: logger}
}

// Normalize converts raw content named by filename into a DocumentModel.
// Empty content, an unrecognized extension, or unparsable content fail with a
// normalization error; no partial model is ever returned.
func (s *Service) Normalize(raw []byte, filename string) (*model.DocumentModel, error) {
	start := time.Now()

	if len(raw) == 0 {
		return nil, common.NormalizationError("empty content", nil)
	}
	kind, ok := constants.KindForExt(filepath.Ext(filename))
	if !ok {
		return nil, common.NormalizationError(
			fmt.Sprintf("no normalizer registered for extension %q", filepath.Ext(filename)), nil)
	}

	var (
		doc *model.DocumentModel
		err error
	)
	switch kind {
	case constants.OCRAnalysis:
		doc, err = s.normalizeOCR(raw)
	case constants.HTML:
		doc, err = s.normalizeHTML(raw)
	case constants.Email:
		doc, err = s.normalizeEML(raw)
	case constants.OutlookMsg:
		doc, err = s.normalizeMSG(raw)
	case constants.CSV:
		doc, err = s.normalizeCSV(raw)
	case constants.XLSX:
		doc, err = s.normalizeXLSX(raw)
	}
	if err != nil {
		s.log.Error("normalize.failed",
			"filename", filename,
			"kind", string(kind),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	doc.SourceKind = kind
	s.log.Info("normalize.ok",
		"filename", filename,
		"kind", string(kind),
		"tables", len(doc.Tables),
		"kv_pairs", len(doc.KeyValuePairs),
		"text_blocks", len(doc.TextBlocks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// collapseWhitespace flattens all runs of whitespace to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
