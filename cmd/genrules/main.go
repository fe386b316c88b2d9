package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docforge/docforge/constants"
	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/llm/openai"
	"github.com/docforge/docforge/internal/model"
	"github.com/docforge/docforge/internal/normalize"
	"github.com/docforge/docforge/internal/repository"
	"github.com/docforge/docforge/internal/rulegen"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		file   = flag.String("file", "", "document to analyze (required)")
		prompt = flag.String("prompt", "", "optional extra guidance for the model")
		save   = flag.Bool("save", false, "persist the proposed rules as a draft template")
		name   = flag.String("name", "", "template name when saving (defaults to the file name)")
	)
	flag.Parse()

	if *file == "" {
		printError("Error: --file is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := common.LoadConfig()
	if err := cfg.ValidateForGeneration(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		printError("Error: reading %s: %v\n", *file, err)
		os.Exit(1)
	}

	doc, err := normalize.New(logger).Normalize(raw, *file)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	ctx, cancel := common.WithTimeout(context.Background(), cfg.LLM.Timeout)
	defer cancel()

	rules, err := rulegen.NewService(client, logger).Generate(ctx, doc, *prompt)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		printError("Error: encoding result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if *save {
		if err := saveTemplate(ctx, cfg, rules, *name, *file, logger); err != nil {
			printError("Error: saving template: %v\n", err)
			os.Exit(1)
		}
	}
}

func saveTemplate(ctx context.Context, cfg *common.Config, rules *model.GeneratedRules, name, file string, logger *slog.Logger) error {
	if name == "" {
		name = filepath.Base(file)
	}
	db, err := repository.Open(ctx, cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	tpl := &model.Template{
		Name:             name,
		Fields:           rules.Fields,
		ExtractionMethod: constants.MethodGenerated,
		Status:           constants.TemplateDraft,
	}
	created, err := repository.NewTemplateRepository(db, logger).Create(ctx, tpl)
	if err != nil {
		return err
	}
	logger.Info("template saved", "id", created.ID, "name", created.Name, "fields", len(created.Fields))
	return nil
}
