package rulegen

import "context"

// TextGenerator is the external text-generation service the pipeline depends
// on. It accepts a system+user prompt pair and returns free-form text that
// the pipeline must parse and validate; implementations are injected so the
// pipeline is testable with fakes.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}
