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

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/envelope"
	"github.com/poiesic/refinery/step"
)

// TypeGraph identifies the entity-graph extraction step.
const TypeGraph = "graph"

// NewGraph creates the graph-extraction step. It extracts entities and
// relations from each record's content and attaches them to the record.
// Extraction failures on individual records become warnings, not step
// failures.
func NewGraph(extractor ai.GraphExtractor) *step.Runner {
	return step.NewRunner(step.Definition{
		Meta: step.Metadata{
			Type:        TypeGraph,
			Name:        "Graph Extraction",
			InputTypes:  []string{"segments"},
			OutputTypes: []string{"segments"},
			ConfigSchema: step.Schema{
				Properties: map[string]step.Property{
					"contentField": {
						Type:        "string",
						Description: "Dot path addressing the text to extract from",
						Default:     "content",
					},
					"skipEmpty": {
						Type:        "boolean",
						Description: "Pass records with empty content through untouched",
						Default:     true,
					},
				},
			},
		},
		Hooks: step.Hooks{
			Execute: func(ctx context.Context, records []core.Record, cfg step.Config, sc step.Context) (*step.Output, error) {
				contentField := cfg.StringValue("contentField", "content")
				skipEmpty := cfg.BoolValue("skipEmpty", true)
				fieldExtractor := envelope.NewExtractor(sc.Logger)

				var warnings []string
				entityTotal := 0
				out := make([]core.Record, len(records))
				for i, record := range records {
					content := fieldExtractor.Extract(record, contentField)
					if content == "" {
						if skipEmpty {
							out[i] = record
							continue
						}
						warnings = append(warnings, fmt.Sprintf("record %d has no content at %q", i, contentField))
						out[i] = record
						continue
					}

					graph, err := extractor.ExtractGraph(ctx, content)
					if err != nil {
						warnings = append(warnings, fmt.Sprintf("record %d extraction failed: %v", i, err))
						out[i] = record
						continue
					}

					r := record.Clone()
					r["entities"] = entityMaps(graph.Entities)
					r["relations"] = relationMaps(graph.Relations)
					out[i] = r
					entityTotal += len(graph.Entities)
				}

				sc.Logger.Info("graph extraction finished",
					"records", len(out),
					"entities", entityTotal)

				return &step.Output{
					Records:  out,
					Warnings: warnings,
					Extra: map[string]any{
						"entityCount": entityTotal,
					},
				}, nil
			},
		},
	})
}

// entityMaps converts entities to the schema-less record representation.
func entityMaps(entities []ai.Entity) []any {
	out := make([]any, len(entities))
	for i, e := range entities {
		out[i] = map[string]any{
			"name":       e.Name,
			"type":       e.Type,
			"confidence": e.Confidence,
		}
	}
	return out
}

func relationMaps(relations []ai.Relation) []any {
	out := make([]any, len(relations))
	for i, r := range relations {
		out[i] = map[string]any{
			"source":     r.Source,
			"target":     r.Target,
			"predicate":  r.Predicate,
			"confidence": r.Confidence,
		}
	}
	return out
}
