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

package condition

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

const defaultCostLimit = 1000

// Evaluator compiles and runs boolean CEL expressions over a single
// `segment` variable. Compiled programs are cached by expression text, so
// evaluating one filter across a large record sequence compiles once.
// Safe for concurrent use.
type Evaluator struct {
	env       *cel.Env
	costLimit uint64

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCostLimit overrides the per-evaluation CEL cost limit.
func WithCostLimit(limit uint64) Option {
	return func(e *Evaluator) {
		if limit > 0 {
			e.costLimit = limit
		}
	}
}

// NewEvaluator creates an evaluator whose environment declares only the
// `segment` map variable.
func NewEvaluator(opts ...Option) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("segment", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvironment, err)
	}

	e := &Evaluator{
		env:       env,
		costLimit: defaultCostLimit,
		programs:  make(map[string]cel.Program),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate runs expr against the given segment fields and returns the
// boolean result. Compilation errors, non-boolean expressions, references to
// undeclared variables and cost-limit overruns are all errors.
func (e *Evaluator) Evaluate(ctx context.Context, expr string, segment map[string]any) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}

	if segment == nil {
		segment = map[string]any{}
	}

	out, _, err := prg.ContextEval(ctx, map[string]any{"segment": segment})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression produced %T, want bool", ErrNotBoolean, out.Value())
	}
	return result, nil
}

// Check compiles expr without evaluating it, for up-front config validation.
func (e *Evaluator) Check(expr string) error {
	_, err := e.program(expr)
	return err
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, iss.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: expression type is %s", ErrNotBoolean, ast.OutputType())
	}

	prg, err := e.env.Program(ast, cel.CostLimit(e.costLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}

	e.mu.Lock()
	e.programs[expr] = prg
	e.mu.Unlock()
	return prg, nil
}
