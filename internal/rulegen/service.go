package rulegen

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/model"
)

// Service turns a document model into a proposed rule set via the injected
// text-generation service. Generate is a pure function of its input apart
// from the external call, so a caller may retry the whole invocation; a
// failed generation is never partially applied.
type Service struct {
	gen TextGenerator
	log *slog.Logger
}

func NewService(gen TextGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, log: logger}
}

// Generate builds the prompt pair, calls the model, and parses/validates the
// response into GeneratedRules with generation metadata attached.
func (s *Service) Generate(ctx context.Context, doc *model.DocumentModel, userPrompt string) (*model.GeneratedRules, error) {
	rid := uuid.New().String()
	ctx = common.WithRequestID(ctx, rid)
	start := time.Now()

	system := BuildSystemPrompt()
	user := BuildUserPrompt(doc, userPrompt)

	s.log.Info("rulegen.generate.start",
		"req_id", rid,
		"model", s.gen.Model(),
		"tables", len(doc.Tables),
		"kv_pairs", len(doc.KeyValuePairs),
		"prompt_len", len(user),
	)

	response, err := s.gen.GenerateText(ctx, system, user)
	if err != nil {
		s.log.Error("rulegen.generate.llm_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.RuleGenerationError("text-generation service call failed", err)
	}

	raw, err := ExtractJSON(response)
	if err != nil {
		s.log.Error("rulegen.generate.no_json",
			"req_id", rid, "response_len", len(response),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.RuleGenerationError("response contained no parseable JSON object", err)
	}

	fields, dropped, err := ParseGeneratedRules(raw)
	if err != nil {
		s.log.Error("rulegen.generate.invalid_rules",
			"req_id", rid, "error", err, "dropped", len(dropped),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	for _, d := range dropped {
		s.log.Warn("rulegen.generate.field_dropped",
			"req_id", rid, "field", d.Field, "reason", d.Reason)
	}

	out := &model.GeneratedRules{
		Fields: fields,
		Metadata: model.GenerationMetadata{
			Model:                 s.gen.Model(),
			GeneratedAt:           time.Now().UTC(),
			TablesAnalyzed:        len(doc.Tables),
			KeyValuePairsAnalyzed: len(doc.KeyValuePairs),
		},
	}

	s.log.Info("rulegen.generate.ok",
		"req_id", rid,
		"fields", len(fields),
		"dropped", len(dropped),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
