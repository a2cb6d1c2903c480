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
	"time"

	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/envelope"
)

// Property describes one config field for external configuration UIs.
type Property struct {
	Type        string // "string", "number", "boolean"
	Description string
	Enum        []string
	Default     any
}

// Schema is the declarative description of a step's configuration. The core
// only exposes it; rendering belongs to the configuration surface.
type Schema struct {
	Properties map[string]Property
	Required   []string
}

// Metadata describes a step to chain builders and configuration UIs.
type Metadata struct {
	Type         string
	Name         string
	InputTypes   []string
	OutputTypes  []string
	ConfigSchema Schema
}

// Output is what an Execute hook produces.
type Output struct {
	Records  []core.Record
	Extra    map[string]any // merged into the result metrics
	Warnings []string
}

// Hooks is the template-method surface of a step. Execute is the only hook
// with step-specific behavior and the only required one; the rest default to
// pass-through.
type Hooks struct {
	// Validate checks the config before anything else runs. An invalid
	// config halts the lifecycle; no further hook is invoked.
	Validate func(cfg Config) core.Validation

	// ShouldExecute gates execution. Default true. A false gate yields a
	// success result equal to the pass-through input plus a warning.
	ShouldExecute func(ctx context.Context, records []core.Record, cfg Config, sc Context) bool

	// PreProcess and PostProcess are pure transforms on the record sequence.
	PreProcess  func(records []core.Record, cfg Config) []core.Record
	PostProcess func(records []core.Record, cfg Config) []core.Record

	// Execute performs the step's work.
	Execute func(ctx context.Context, records []core.Record, cfg Config, sc Context) (*Output, error)

	// Rollback undoes the step's effects from its captured snapshot.
	Rollback func(ctx context.Context, snapshot *core.RollbackSnapshot, sc Context) error
}

// Definition is a complete step: what it is plus what it does.
type Definition struct {
	Meta  Metadata
	Hooks Hooks
}

// Runner drives a Definition through the lifecycle. One runner serves any
// number of invocations; all per-invocation state lives in the result.
type Runner struct {
	def Definition
}

// NewRunner wraps a step definition.
func NewRunner(def Definition) *Runner {
	return &Runner{def: def}
}

// Metadata returns the step's descriptive metadata.
func (r *Runner) Metadata() Metadata {
	return r.def.Meta
}

// Validate runs only the validation hook. Steps without one accept any
// config.
func (r *Runner) Validate(cfg Config) core.Validation {
	if r.def.Hooks.Validate == nil {
		return core.Valid()
	}
	return r.def.Hooks.Validate(cfg)
}

// Execute drives one invocation through the full lifecycle. The input may be
// any envelope shape; it is normalized exactly once and the config's
// contentField is adjusted in lock-step with the unwrapping.
//
// Errors and panics raised by hooks never escape: every path returns a
// structured result, and failed results carry the pre-execution records so
// downstream consumers can continue.
func (r *Runner) Execute(ctx context.Context, input any, cfg Config, sc Context) core.ExecutionResult {
	start := time.Now()

	contentField := cfg.StringValue("contentField", "")
	env := envelope.Normalize(input, contentField)
	records := env.Records
	warnings := append([]string{}, env.Warnings...)

	if env.ContentField != contentField {
		cfg = cfg.Clone()
		cfg["contentField"] = env.ContentField
		sc.Logger.Debug("content field adjusted with unwrapping",
			"step", r.def.Meta.Type, "from", contentField, "to", env.ContentField)
	}

	if v := r.Validate(cfg); !v.IsValid {
		sc.Logger.Warn("step config invalid", "step", r.def.Meta.Type, "errors", v.Errors)
		return core.ExecutionResult{
			Success:  false,
			Output:   records,
			Error:    fmt.Sprintf("config validation failed: %v", v.Errors),
			Warnings: append(warnings, v.Warnings...),
			Metrics:  core.ComputeMetrics(len(records), len(records), time.Since(start)),
		}
	}

	if r.def.Hooks.ShouldExecute != nil && !r.def.Hooks.ShouldExecute(ctx, records, cfg, sc) {
		sc.Logger.Info("step skipped", "step", r.def.Meta.Type)
		return core.ExecutionResult{
			Success:  true,
			Output:   records,
			Warnings: append(warnings, fmt.Sprintf("step %s skipped: gate returned false", r.def.Meta.Type)),
			Metrics:  core.ComputeMetrics(len(records), len(records), time.Since(start)),
		}
	}

	// Rollback state is captured from the pre-execution input, never the
	// output, so a rollback can always reconstruct what existed before.
	snapshot := core.Snapshot(r.def.Meta.Type, sc.ExecutionID, cfg, records)

	preprocessed := records
	if r.def.Hooks.PreProcess != nil {
		preprocessed = r.def.Hooks.PreProcess(records, cfg)
	}

	output, execErr := r.execute(ctx, preprocessed, cfg, sc)
	if execErr != nil {
		sc.Logger.Error("step execution failed", "step", r.def.Meta.Type, "err", execErr)
		return core.ExecutionResult{
			Success:  false,
			Output:   records,
			Error:    execErr.Error(),
			Warnings: warnings,
			Metrics:  core.ComputeMetrics(len(records), len(records), time.Since(start)),
			Rollback: snapshot,
		}
	}

	outRecords := output.Records
	if r.def.Hooks.PostProcess != nil {
		outRecords = r.def.Hooks.PostProcess(outRecords, cfg)
	}

	metrics := core.ComputeMetrics(len(records), len(outRecords), time.Since(start))
	metrics.Extra = output.Extra

	return core.ExecutionResult{
		Success:  true,
		Output:   outRecords,
		Warnings: append(warnings, output.Warnings...),
		Metrics:  metrics,
		Rollback: snapshot,
	}
}

// execute invokes the Execute hook with panic containment.
func (r *Runner) execute(ctx context.Context, records []core.Record, cfg Config, sc Context) (out *Output, err error) {
	if r.def.Hooks.Execute == nil {
		return &Output{Records: records}, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("step %s panicked: %v", r.def.Meta.Type, rec)
		}
	}()

	out, err = r.def.Hooks.Execute(ctx, records, cfg, sc)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = &Output{Records: records}
	}
	return out, nil
}

// Rollback invokes the step's rollback hook with its captured snapshot.
// Steps without a rollback hook succeed trivially; rollback failures are
// reported, not raised.
func (r *Runner) Rollback(ctx context.Context, snapshot *core.RollbackSnapshot, sc Context) core.RollbackResult {
	if r.def.Hooks.Rollback == nil {
		return core.RollbackResult{Success: true}
	}
	if err := core.ValidateSnapshot(snapshot); err != nil {
		return core.RollbackResult{Success: false, Error: err.Error()}
	}
	if err := r.def.Hooks.Rollback(ctx, snapshot, sc); err != nil {
		sc.Logger.Warn("rollback failed", "step", r.def.Meta.Type, "err", err)
		return core.RollbackResult{Success: false, Error: err.Error()}
	}
	return core.RollbackResult{Success: true}
}
