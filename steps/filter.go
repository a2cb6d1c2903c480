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

package steps

import (
	"context"
	"fmt"

	"github.com/poiesic/refinery/condition"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/step"
)

// TypeFilter identifies the condition-filter step.
const TypeFilter = "filter"

// NewFilter creates the filter step. It keeps records whose condition
// expression evaluates true; records the expression fails on are dropped
// with a warning rather than failing the step.
func NewFilter(evaluator *condition.Evaluator) *step.Runner {
	return step.NewRunner(step.Definition{
		Meta: step.Metadata{
			Type:        TypeFilter,
			Name:        "Condition Filter",
			InputTypes:  []string{"segments"},
			OutputTypes: []string{"segments"},
			ConfigSchema: step.Schema{
				Properties: map[string]step.Property{
					"condition": {
						Type:        "string",
						Description: "Boolean expression over the segment, e.g. segment.status == \"new\"",
					},
				},
				Required: []string{"condition"},
			},
		},
		Hooks: step.Hooks{
			Validate: func(cfg step.Config) core.Validation {
				expr := cfg.StringValue("condition", "")
				if expr == "" {
					return core.Invalid("condition is required")
				}
				if err := evaluator.Check(expr); err != nil {
					return core.Invalid(fmt.Sprintf("invalid condition: %v", err))
				}
				return core.Valid()
			},
			Execute: func(ctx context.Context, records []core.Record, cfg step.Config, sc step.Context) (*step.Output, error) {
				expr := cfg.StringValue("condition", "")

				kept := make([]core.Record, 0, len(records))
				var warnings []string
				for i, record := range records {
					ok, err := evaluator.Evaluate(ctx, expr, record)
					if err != nil {
						warnings = append(warnings, fmt.Sprintf("record %d dropped: %v", i, err))
						continue
					}
					if ok {
						kept = append(kept, record)
					}
				}

				sc.Logger.Info("filter finished",
					"total", len(records),
					"kept", len(kept))

				return &step.Output{
					Records:  kept,
					Warnings: warnings,
					Extra: map[string]any{
						"filteredCount": len(records) - len(kept),
					},
				}, nil
			},
		},
	})
}
