package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/export"
	"github.com/docforge/docforge/internal/identify"
	"github.com/docforge/docforge/internal/model"
	"github.com/docforge/docforge/internal/normalize"
	"github.com/docforge/docforge/internal/pipeline"
	"github.com/docforge/docforge/internal/resolve"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of documents to extract from (required)")
		tplPath    = flag.String("template", "", "path to a template JSON file (required)")
		sigPath    = flag.String("signatures", "", "optional path to entity signatures JSON")
		out        = flag.String("out", "", "output directory for XLSX results (defaults to --dir)")
	)
	flag.Parse()

	if *dir == "" || *tplPath == "" {
		printError("Error: --dir and --template are required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = *dir
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := common.LoadConfig()

	tpl, err := loadTemplate(*tplPath)
	if err != nil {
		printError("Error: loading template: %v\n", err)
		os.Exit(1)
	}
	var signatures map[string]identify.Signature
	if *sigPath != "" {
		if signatures, err = loadSignatures(*sigPath); err != nil {
			printError("Error: loading signatures: %v\n", err)
			os.Exit(1)
		}
	}

	proc := pipeline.NewProcessor(
		logger,
		normalize.New(logger),
		resolve.New(logger),
		identify.New(cfg.Identify.MatchThreshold, cfg.Identify.AnchorBonus, logger),
	)
	queue := pipeline.NewQueue(proc, logger,
		pipeline.WithWorkers(cfg.Batch.Workers),
		pipeline.WithQueueSize(cfg.Batch.QueueSize),
	)
	exporter := export.NewService(logger)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		printError("Error: reading %s: %v\n", *dir, err)
		os.Exit(1)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	var failed int
	var mu sync.Mutex

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(*dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read failed", "path", path, "error", err)
			continue
		}

		wg.Add(1)
		name := e.Name()
		err = queue.Enqueue(ctx, pipeline.Job{
			Filename:   name,
			Raw:        raw,
			Template:   tpl,
			Signatures: signatures,
			Done: func(ext *pipeline.Extraction, err error) {
				defer wg.Done()
				if err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					return
				}
				xlsx, xerr := exporter.ResultXLSX(tpl.Name, ext.Result)
				if xerr != nil {
					logger.Error("export failed", "filename", name, "error", xerr)
					return
				}
				outPath := filepath.Join(*out, strings.TrimSuffix(name, filepath.Ext(name))+".xlsx")
				if werr := os.WriteFile(outPath, xlsx, 0o644); werr != nil {
					logger.Error("write failed", "path", outPath, "error", werr)
				}
			},
		})
		if err != nil {
			logger.Error("enqueue failed", "filename", name, "error", err)
			wg.Done()
			mu.Lock()
			failed++
			mu.Unlock()
		}
	}

	wg.Wait()
	shutdownCtx, cancel := common.WithTimeout(ctx, cfg.Batch.Timeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	if failed > 0 {
		printError("%d document(s) failed to process\n", failed)
		os.Exit(1)
	}
}

func loadTemplate(path string) (*model.Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tpl model.Template
	if err := json.Unmarshal(raw, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func loadSignatures(path string) (map[string]identify.Signature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sigs map[string]identify.Signature
	if err := json.Unmarshal(raw, &sigs); err != nil {
		return nil, err
	}
	return sigs, nil
}
