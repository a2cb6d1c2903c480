// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/refinery"
	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/ai/mock"
	"github.com/poiesic/refinery/ai/openai"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/pipeline"
	"github.com/poiesic/refinery/search"
	"github.com/poiesic/refinery/step"
	"github.com/poiesic/refinery/steps"
	"github.com/poiesic/refinery/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "refinery",
		Usage: "Batch refinement pipelines for content records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run a pipeline over a JSON record file",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "pipeline",
						Aliases:  []string{"p"},
						Usage:    "Path to YAML pipeline definition",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to JSON input file (- for stdin)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to JSON output file (- for stdout)",
						Value:   "-",
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory (in-memory if omitted)",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID recorded on the execution context",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:  "chat-host",
						Usage: "Chat service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "chat-model",
						Usage: "Chat model name",
						Value: "qwen2.5:3b",
					},
					&cli.BoolFlag{
						Name:  "mock-ai",
						Usage: "Use deterministic in-process AI services (offline runs)",
					},
				},
			},
			{
				Name:   "validate",
				Usage:  "Check a pipeline definition without running it",
				Action: validateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "pipeline",
						Aliases:  []string{"p"},
						Usage:    "Path to YAML pipeline definition",
						Required: true,
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Semantic search over persisted segments",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Search query text",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "dataset",
						Usage: "Restrict the search to one dataset",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
				},
			},
			{
				Name:   "dedupe",
				Usage:  "One-shot duplicate removal over a JSON record file",
				Action: dedupeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to JSON input file (- for stdin)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to JSON output file (- for stdout)",
						Value:   "-",
					},
					&cli.StringFlag{
						Name:  "method",
						Usage: "Matching method (hash or similarity)",
						Value: "hash",
					},
					&cli.Float64Flag{
						Name:  "similarity-threshold",
						Usage: "Jaccard score at or above which a record is a duplicate",
						Value: 0.8,
					},
					&cli.StringFlag{
						Name:  "content-field",
						Usage: "Dot path addressing the text to compare",
						Value: "content",
					},
					&cli.BoolFlag{
						Name:  "case-sensitive",
						Usage: "Disable case folding during comparison",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand(c *cli.Context) error {
	ctx := context.Background()

	def, err := pipeline.Load(c.String("pipeline"))
	if err != nil {
		return err
	}

	input, err := readInput(c.String("input"))
	if err != nil {
		return err
	}

	engineOpts := []refinery.EngineOption{}
	dbPath := c.String("db")
	if dbPath == "" {
		engineOpts = append(engineOpts, refinery.WithInMemoryStorage())
	}
	if c.Bool("mock-ai") {
		engineOpts = append(engineOpts, refinery.WithProvider(mock.NewMockProvider()))
	} else {
		engineOpts = append(engineOpts, refinery.WithAIConfig(ai.NewConfig(
			ai.WithEmbeddingHost(c.String("embedding-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
			ai.WithChatHost(c.String("chat-host")),
			ai.WithChatModel(c.String("chat-model")),
		)))
	}

	engine, err := refinery.Open(dbPath, engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	executor, err := engine.NewPipelineExecutor()
	if err != nil {
		return err
	}
	defer executor.Release()

	fmt.Fprintf(os.Stderr, "Pipeline: %s (%d steps)\n", def.Name, len(def.Steps))

	result, err := executor.Run(ctx, def, input, c.String("user"))
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Fprintf(os.Stderr, "Records out: %d\n", len(result.Output))

	return writeOutput(c.String("output"), result.Output)
}

func validateCommand(c *cli.Context) error {
	def, err := pipeline.Load(c.String("pipeline"))
	if err != nil {
		return err
	}

	// Config validation needs fully wired steps, so stand up an in-memory
	// engine with in-process AI services.
	engine, err := refinery.Open("",
		refinery.WithInMemoryStorage(),
		refinery.WithProvider(mock.NewMockProvider()),
	)
	if err != nil {
		return err
	}
	defer engine.Close()

	executor, err := engine.NewPipelineExecutor()
	if err != nil {
		return err
	}
	defer executor.Release()

	v, err := executor.Validate(def)
	if err != nil {
		return err
	}
	if !v.IsValid {
		for _, e := range v.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		return fmt.Errorf("pipeline %q is invalid", def.Name)
	}

	for _, w := range v.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Fprintf(os.Stderr, "Pipeline %q is valid (%d steps)\n", def.Name, len(def.Steps))
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewSegmentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	searcher, err := search.NewSearcher(repo, embedder)
	if err != nil {
		return err
	}

	query := c.String("query")
	maxHits := c.Int("max-hits")

	var results []*core.SearchResult
	if dataset := c.String("dataset"); dataset != "" {
		results, err = searcher.SearchDataset(ctx, dataset, query, maxHits)
	} else {
		results, err = searcher.Search(ctx, query, maxHits)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for _, r := range results {
		fmt.Printf("%.3f  [%s:%d]  %s\n",
			r.Score, r.Segment.DatasetID, r.Segment.Position, r.Segment.Content)
	}
	fmt.Fprintf(os.Stderr, "%d results\n", len(results))
	return nil
}

func dedupeCommand(c *cli.Context) error {
	input, err := readInput(c.String("input"))
	if err != nil {
		return err
	}

	runner := steps.NewDeduplication()
	cfg := step.Config{
		"method":              c.String("method"),
		"similarityThreshold": c.Float64("similarity-threshold"),
		"contentField":        c.String("content-field"),
		"caseSensitive":       c.Bool("case-sensitive"),
	}

	sc := step.NewContext("dedupe", c.String("user"), nil)
	result := runner.Execute(context.Background(), input, cfg, sc)
	if !result.Success {
		return fmt.Errorf("deduplication failed: %s", result.Error)
	}

	fmt.Fprintf(os.Stderr, "Records in: %d, out: %d\n",
		result.Metrics.InputCount, result.Metrics.OutputCount)

	return writeOutput(c.String("output"), result.Output)
}

// readInput decodes a JSON record file. Any envelope shape the pipeline
// understands is accepted as-is.
func readInput(path string) (any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}
	return input, nil
}

func writeOutput(path string, records []core.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
