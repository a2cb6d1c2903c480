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

	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/dedupe"
	"github.com/poiesic/refinery/step"
)

// TypeDeduplication identifies the duplicate-detection step.
const TypeDeduplication = "deduplication"

// NewDeduplication creates the duplicate-detection step. It partitions the
// input into kept records and duplicates, emitting the kept records in their
// original relative order. Detection state is scoped to one invocation.
func NewDeduplication() *step.Runner {
	return step.NewRunner(step.Definition{
		Meta: step.Metadata{
			Type:        TypeDeduplication,
			Name:        "Duplicate Detection",
			InputTypes:  []string{"segments"},
			OutputTypes: []string{"segments"},
			ConfigSchema: step.Schema{
				Properties: map[string]step.Property{
					"method": {
						Type:        "string",
						Description: "Exact (hash) or fuzzy (similarity) matching",
						Enum:        []string{dedupe.MethodHash, dedupe.MethodSimilarity},
						Default:     dedupe.MethodHash,
					},
					"similarityThreshold": {
						Type:        "number",
						Description: "Jaccard score at or above which a record is a duplicate",
						Default:     0.8,
					},
					"contentField": {
						Type:        "string",
						Description: "Dot path addressing the text to compare",
						Default:     "content",
					},
					"hashAlgorithm": {
						Type:        "string",
						Description: "Content hash for the hash method",
						Enum:        []string{dedupe.HashSHA256, dedupe.HashMD5},
						Default:     dedupe.HashSHA256,
					},
					"caseSensitive": {
						Type:        "boolean",
						Description: "Disable case folding during comparison",
						Default:     false,
					},
					"ignoreWhitespace": {
						Type:        "boolean",
						Description: "Collapse whitespace runs before comparison",
						Default:     true,
					},
				},
			},
		},
		Hooks: step.Hooks{
			Validate: func(cfg step.Config) core.Validation {
				if err := dedupe.ConfigFromMap(cfg).Validate(); err != nil {
					return core.Invalid(err.Error())
				}
				return core.Valid()
			},
			Execute: func(ctx context.Context, records []core.Record, cfg step.Config, sc step.Context) (*step.Output, error) {
				detector := dedupe.NewDetector(dedupe.ConfigFromMap(cfg), sc.Logger)

				// Chunked so large collections yield between batches. The
				// detector mutates left to right; Process preserves order.
				kept := make([]core.Record, 0, len(records))
				duplicateCount := 0
				scheduler := step.NewScheduler(step.WithProgress(func(percent int) {
					sc.Logger.Debug("deduplication progress", "percent", percent)
				}))
				err := scheduler.Process(records, func(record core.Record) error {
					c := detector.Classify(record)
					if c.Duplicate {
						duplicateCount++
						return nil
					}
					kept = append(kept, record)
					return nil
				})
				if err != nil {
					return nil, err
				}

				sc.Logger.Info("deduplication finished",
					"total", len(records),
					"kept", len(kept),
					"duplicates", duplicateCount)

				return &step.Output{
					Records: kept,
					Extra: map[string]any{
						"duplicateCount": duplicateCount,
					},
				}, nil
			},
		},
	})
}
