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

// Package refinery is a batch refinement engine for schema-less content
// records. It chains configurable processing steps (deduplication,
// filtering, summarization, embedding, graph extraction) into pipelines with
// per-step rollback, backed by BadgerDB storage and OpenAI-compatible AI
// services.
package refinery

import (
	"log/slog"

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/ai/openai"
	"github.com/poiesic/refinery/condition"
	"github.com/poiesic/refinery/pipeline"
	"github.com/poiesic/refinery/search"
	"github.com/poiesic/refinery/steps"
	"github.com/poiesic/refinery/storage"
	"github.com/poiesic/refinery/storage/badger"
)

// Engine wires the storage backend, AI provider and step registry together.
// It is the entry point for embedding the refinery into an application.
type Engine struct {
	backend   *badger.Backend
	segments  storage.SegmentRepository
	snapshots storage.SnapshotRepository
	provider  ai.Provider
	evaluator *condition.Evaluator
	registry  *steps.Registry
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the configuration for the default OpenAI-compatible
// provider.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing the
// OpenAI-compatible one. The engine takes ownership and closes it.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps all data in memory. The file path is ignored.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithEngineLogger sets a custom logger.
// Default is slog.Default().
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open creates an engine over a BadgerDB directory.
func Open(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	segments, err := badger.NewSegmentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	snapshots := badger.NewSnapshotRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			segments.Close()
			backend.Close()
			return nil, err
		}
	}

	evaluator, err := condition.NewEvaluator()
	if err != nil {
		provider.Close()
		segments.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:   backend,
		segments:  segments,
		snapshots: snapshots,
		provider:  provider,
		evaluator: evaluator,
		registry:  steps.NewRegistry(provider, evaluator, segments),
		logger:    options.logger,
	}, nil
}

// Close releases the AI provider, repositories and storage backend.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.snapshots.Close(); err != nil {
		e.logger.Error("error closing snapshot repository", "err", err)
		return err
	}
	if err := e.segments.Close(); err != nil {
		e.logger.Error("error closing segment repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// SegmentRepository returns the persisted-segment repository.
func (e *Engine) SegmentRepository() storage.SegmentRepository {
	return e.segments
}

// SnapshotRepository returns the rollback-snapshot repository.
func (e *Engine) SnapshotRepository() storage.SnapshotRepository {
	return e.snapshots
}

// Registry returns the step registry.
func (e *Engine) Registry() *steps.Registry {
	return e.registry
}

// Provider returns the AI provider.
func (e *Engine) Provider() ai.Provider {
	return e.provider
}

// NewSearcher creates a semantic searcher over the engine's persisted
// segments.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(e.segments, e.provider.Embedder(), opts...)
}

// NewPipelineExecutor creates a pipeline executor wired to the engine's step
// registry and snapshot repository. Options may override the defaults.
func (e *Engine) NewPipelineExecutor(opts ...pipeline.Option) (*pipeline.Executor, error) {
	defaults := []pipeline.Option{
		pipeline.WithLogger(e.logger),
		pipeline.WithSnapshotRepository(e.snapshots),
	}
	return pipeline.NewExecutor(e.registry, append(defaults, opts...)...)
}
