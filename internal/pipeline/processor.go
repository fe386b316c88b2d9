// Package pipeline coordinates normalize → identify → resolve for whole
// documents, plus a bounded worker queue for batch runs.
package pipeline

import (
	"log/slog"

	"github.com/docforge/docforge/internal/identify"
	"github.com/docforge/docforge/internal/model"
	"github.com/docforge/docforge/internal/normalize"
	"github.com/docforge/docforge/internal/resolve"
)

// Extraction is the per-document output of a processor run.
type Extraction struct {
	Document *model.DocumentModel `json:"-"`
	Result   *resolve.Result      `json:"result"`
	Tables   *identify.Assignment `json:"tables,omitempty"`
}

// Processor ties the stages together. Per-document work is a pure-data
// transformation with no shared mutable state, so one Processor is safe to
// use from many goroutines.
type Processor struct {
	Logger     *slog.Logger
	Normalizer *normalize.Service
	Resolver   *resolve.Resolver
	Identifier *identify.Identifier
}

func NewProcessor(logger *slog.Logger, n *normalize.Service, r *resolve.Resolver, id *identify.Identifier) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Normalizer: n, Resolver: r, Identifier: id}
}

// ProcessDocument normalizes raw content and resolves the template against
// it. Entity signatures are optional; when present the tables are routed
// first and the assignment travels with the result.
func (p *Processor) ProcessDocument(raw []byte, filename string, tpl *model.Template, signatures map[string]identify.Signature) (*Extraction, error) {
	doc, err := p.Normalizer.Normalize(raw, filename)
	if err != nil {
		p.Logger.Error("processor.normalize.failed", "filename", filename, "err", err)
		return nil, err
	}

	ext := &Extraction{Document: doc}
	if len(signatures) > 0 && p.Identifier != nil {
		ext.Tables = p.Identifier.Identify(doc, signatures)
		for _, w := range ext.Tables.Warnings {
			p.Logger.Warn("processor.identify.warning",
				"filename", filename, "code", w.Code, "entity", w.Entity, "table", w.Table)
		}
	}

	ext.Result = p.Resolver.ResolveTemplate(tpl, doc)
	p.Logger.Info("processor.resolve.ok",
		"filename", filename,
		"template", tpl.Name,
		"values", len(ext.Result.Values),
		"records", len(ext.Result.Records),
		"field_errors", len(ext.Result.FieldErrors),
	)
	return ext, nil
}
