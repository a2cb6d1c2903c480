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

package step

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/refinery/core"
)

// ChainStep is one link in a composite chain: a runner plus the config it
// executes with.
type ChainStep struct {
	Runner *Runner
	Config Config
}

// ChainResult is the outcome of running a composite chain. StepResults holds
// one entry per sub-step that actually ran, in order; their snapshots drive
// rollback.
type ChainResult struct {
	Success     bool
	Output      []core.Record
	StepResults []core.ExecutionResult
	Warnings    []string
}

// Composite chains steps, feeding each step's output records to the next.
// The whole chain is validated up front; on a sub-step failure it either
// aborts (stopOnError, the default) or logs and continues with the last
// successful intermediate state.
type Composite struct {
	steps       []ChainStep
	stopOnError bool
	logger      *slog.Logger
}

// CompositeOption configures a Composite.
type CompositeOption func(*Composite)

// WithStopOnError controls failure behavior. Default true: the chain aborts
// on the first failing sub-step.
func WithStopOnError(stop bool) CompositeOption {
	return func(c *Composite) {
		c.stopOnError = stop
	}
}

// WithCompositeLogger sets a custom logger. Default is slog.Default().
func WithCompositeLogger(logger *slog.Logger) CompositeOption {
	return func(c *Composite) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewComposite builds a chain over the given steps.
func NewComposite(steps []ChainStep, opts ...CompositeOption) *Composite {
	c := &Composite{
		steps:       steps,
		stopOnError: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks every sub-step's config and aggregates all errors and
// warnings, attributed to the sub-step and its position, before anything
// runs.
func (c *Composite) Validate() core.Validation {
	combined := core.Valid()
	for i, s := range c.steps {
		v := s.Runner.Validate(s.Config)
		combined.IsValid = combined.IsValid && v.IsValid
		for _, e := range v.Errors {
			combined.Errors = append(combined.Errors,
				fmt.Sprintf("step %d (%s): %s", i, s.Runner.Metadata().Type, e))
		}
		for _, w := range v.Warnings {
			combined.Warnings = append(combined.Warnings,
				fmt.Sprintf("step %d (%s): %s", i, s.Runner.Metadata().Type, w))
		}
	}
	return combined
}

// Execute runs the chain, propagating output records into the next step's
// input. A validation failure or, under stopOnError, a sub-step failure
// returns a non-nil error attributing the failure to the sub-step and its
// position.
func (c *Composite) Execute(ctx context.Context, input any, sc Context) (*ChainResult, error) {
	if v := c.Validate(); !v.IsValid {
		return nil, fmt.Errorf("chain validation failed: %v", v.Errors)
	}

	result := &ChainResult{Success: true}

	var current any = input
	for i, s := range c.steps {
		stepType := s.Runner.Metadata().Type
		stepResult := s.Runner.Execute(ctx, current, s.Config, sc)
		result.StepResults = append(result.StepResults, stepResult)
		result.Warnings = append(result.Warnings, stepResult.Warnings...)

		if !stepResult.Success {
			if c.stopOnError {
				result.Success = false
				result.Output = stepResult.Output
				return result, fmt.Errorf("step %d (%s) failed: %s", i, stepType, stepResult.Error)
			}
			// Continue with the last successful intermediate state; the
			// failed step's output already defaults to its input.
			c.logger.Warn("step failed, continuing chain",
				"position", i, "step", stepType, "err", stepResult.Error)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("step %d (%s) failed: %s", i, stepType, stepResult.Error))
		}

		current = stepResult.Output
		result.Output = stepResult.Output
	}

	return result, nil
}

// Rollback replays the chain's sub-steps in reverse index order, invoking
// each one's rollback with its own captured snapshot. A failing sub-step
// rollback is logged and reported but does not stop the remaining ones:
// rollback is best-effort, not transactional.
func (c *Composite) Rollback(ctx context.Context, chainResult *ChainResult, sc Context) []core.RollbackResult {
	if chainResult == nil {
		return nil
	}

	results := make([]core.RollbackResult, 0, len(chainResult.StepResults))
	for i := len(chainResult.StepResults) - 1; i >= 0; i-- {
		stepResult := chainResult.StepResults[i]
		if stepResult.Rollback == nil {
			// Step never reached execution; nothing to undo.
			continue
		}

		r := c.steps[i].Runner.Rollback(ctx, stepResult.Rollback, sc)
		if !r.Success {
			c.logger.Warn("sub-step rollback failed",
				"position", i, "step", c.steps[i].Runner.Metadata().Type, "err", r.Error)
		}
		results = append(results, r)
	}

	return results
}
