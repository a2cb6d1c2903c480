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

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/step"
	"github.com/poiesic/refinery/steps"
	"github.com/poiesic/refinery/storage"
)

// Executor resolves pipeline definitions into step chains and runs them.
// Dataset-level runs execute concurrently on a worker pool; within one run
// the chain is strictly sequential.
type Executor struct {
	registry  *steps.Registry
	snapshots storage.SnapshotRepository
	pool      *ants.Pool
	logger    *slog.Logger
	progress  io.Writer
}

// Option configures an Executor.
type Option func(*Executor) error

// WithPoolSize sets the worker pool size for concurrent dataset runs.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Executor) error {
		if size < 1 {
			size = 1
		}
		if e.pool != nil {
			e.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithProgressWriter enables dataset-level progress reporting during
// RunDatasets, written to w (typically os.Stderr).
func WithProgressWriter(w io.Writer) Option {
	return func(e *Executor) error {
		e.progress = w
		return nil
	}
}

// WithSnapshotRepository sets the repository failed runs persist their
// rollback snapshots to. Without one, snapshots live only in the result.
func WithSnapshotRepository(repo storage.SnapshotRepository) Option {
	return func(e *Executor) error {
		e.snapshots = repo
		return nil
	}
}

// NewExecutor creates a pipeline executor over a step registry.
func NewExecutor(registry *steps.Registry, opts ...Option) (*Executor, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	e := &Executor{
		registry: registry,
		pool:     pool,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}

	return e, nil
}

// Chain resolves a definition against the registry into an executable
// composite chain.
func (e *Executor) Chain(def *Definition) (*step.Composite, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	chainSteps := make([]step.ChainStep, len(def.Steps))
	for i, s := range def.Steps {
		runner, err := e.registry.Runner(s.Type)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		chainSteps[i] = step.ChainStep{
			Runner: runner,
			Config: step.Config(s.Config),
		}
	}

	return step.NewComposite(chainSteps,
		step.WithStopOnError(def.stopOnError()),
		step.WithCompositeLogger(e.logger),
	), nil
}

// Validate resolves the definition and aggregates every step's config
// validation without running anything.
func (e *Executor) Validate(def *Definition) (core.Validation, error) {
	chain, err := e.Chain(def)
	if err != nil {
		return core.Invalid(err.Error()), err
	}
	return chain.Validate(), nil
}

// Run executes one pipeline over the given input. On a chain failure the
// completed steps are rolled back in reverse order; snapshots of steps whose
// rollback did not succeed are persisted so they can be retried or inspected
// later.
//
// The returned chain result is non-nil whenever any step ran, even on
// failure.
func (e *Executor) Run(ctx context.Context, def *Definition, input any, userID string) (*step.ChainResult, error) {
	chain, err := e.Chain(def)
	if err != nil {
		return nil, err
	}

	sc := step.NewContext(def.Name, userID, e.logger)
	sc.Logger.Info("pipeline started", "pipeline", def.Name, "steps", len(def.Steps))

	result, execErr := chain.Execute(ctx, input, sc)
	if execErr == nil {
		sc.Logger.Info("pipeline finished",
			"pipeline", def.Name, "records", len(result.Output))
		return result, nil
	}

	if result == nil {
		// Chain-level validation failure; nothing ran.
		return nil, execErr
	}

	sc.Logger.Warn("pipeline failed, rolling back",
		"pipeline", def.Name, "err", execErr)
	e.rollback(ctx, chain, result, sc)

	return result, execErr
}

// rollback undoes a failed run and persists the snapshots that could not be
// undone.
func (e *Executor) rollback(ctx context.Context, chain *step.Composite, result *step.ChainResult, sc step.Context) {
	rollbackResults := chain.Rollback(ctx, result, sc)

	failed := 0
	for _, r := range rollbackResults {
		if !r.Success {
			failed++
		}
	}
	if failed == 0 {
		return
	}
	sc.Logger.Warn("rollback incomplete", "failedSteps", failed)

	if e.snapshots == nil {
		return
	}
	for i, stepResult := range result.StepResults {
		if stepResult.Rollback == nil {
			continue
		}
		// Each chain position gets its own persisted snapshot key.
		snapshot := *stepResult.Rollback
		snapshot.ExecutionId = fmt.Sprintf("%s:%d", sc.ExecutionID, i)
		if err := e.snapshots.SaveSnapshot(ctx, &snapshot); err != nil {
			sc.Logger.Error("persisting rollback snapshot failed",
				"position", i, "step", snapshot.StepType, "err", err)
		}
	}
}

// DatasetResult is the outcome of one dataset's run within RunDatasets.
type DatasetResult struct {
	DatasetID string
	Chain     *step.ChainResult
	Err       error
}

// RunDatasets executes the pipeline once per dataset, concurrently on the
// worker pool. Each dataset gets its own execution context; one dataset's
// failure does not stop the others. Results come back ordered by dataset ID,
// and the returned error joins the per-dataset failures.
func (e *Executor) RunDatasets(ctx context.Context, def *Definition, datasets map[string][]core.Record, userID string) ([]DatasetResult, error) {
	if _, err := e.Chain(def); err != nil {
		return nil, err
	}

	var tracker *step.Tracker
	if e.progress != nil {
		tracker = step.NewTracker(e.progress, len(datasets), 1)
		tracker.Start()
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]DatasetResult, 0, len(datasets))
	)

	for datasetID, records := range datasets {
		datasetID, records := datasetID, records
		wg.Add(1)
		submitErr := e.pool.Submit(func() {
			defer wg.Done()
			chainResult, err := e.Run(ctx, def, records, userID)
			if tracker != nil {
				tracker.Increment(1)
			}
			mu.Lock()
			results = append(results, DatasetResult{
				DatasetID: datasetID,
				Chain:     chainResult,
				Err:       err,
			})
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			results = append(results, DatasetResult{DatasetID: datasetID, Err: submitErr})
			mu.Unlock()
		}
	}
	wg.Wait()
	if tracker != nil {
		tracker.Finish()
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DatasetID < results[j].DatasetID
	})

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("dataset %s: %w", r.DatasetID, r.Err))
		}
	}
	return results, errors.Join(errs...)
}

// Release releases the worker pool.
// The executor should not be used after calling Release.
func (e *Executor) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}
