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
	"math"

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/envelope"
	"github.com/poiesic/refinery/step"
	"github.com/poiesic/refinery/storage"
)

// TypeEmbed identifies the embedding step.
const TypeEmbed = "embed"

// NewEmbed creates the embedding step. It attaches a unit-length embedding
// vector to every record and, when configured with a dataset ID and persist
// flag, writes the embedded records to storage as segments. Rollback deletes
// the segments the invocation persisted.
func NewEmbed(embedder ai.Embedder, segments storage.SegmentRepository) *step.Runner {
	return step.NewRunner(step.Definition{
		Meta: step.Metadata{
			Type:        TypeEmbed,
			Name:        "Embedding",
			InputTypes:  []string{"segments"},
			OutputTypes: []string{"segments"},
			ConfigSchema: step.Schema{
				Properties: map[string]step.Property{
					"contentField": {
						Type:        "string",
						Description: "Dot path addressing the text to embed",
						Default:     "content",
					},
					"persist": {
						Type:        "boolean",
						Description: "Write embedded records to storage as segments",
						Default:     false,
					},
					"datasetId": {
						Type:        "string",
						Description: "Dataset the persisted segments belong to",
					},
					"documentId": {
						Type:        "string",
						Description: "Document the persisted segments belong to",
					},
				},
			},
		},
		Hooks: step.Hooks{
			Validate: func(cfg step.Config) core.Validation {
				if cfg.BoolValue("persist", false) {
					if segments == nil {
						return core.Invalid("persist requires a segment repository")
					}
					if cfg.StringValue("datasetId", "") == "" {
						return core.Invalid("persist requires datasetId")
					}
				}
				return core.Valid()
			},
			Execute: func(ctx context.Context, records []core.Record, cfg step.Config, sc step.Context) (*step.Output, error) {
				contentField := cfg.StringValue("contentField", "content")
				extractor := envelope.NewExtractor(sc.Logger)

				texts := make([]string, len(records))
				for i, record := range records {
					texts[i] = extractor.Extract(record, contentField)
				}

				vectors, err := embedder.EmbedTexts(ctx, texts)
				if err != nil {
					return nil, fmt.Errorf("embedding failed: %w", err)
				}
				if len(vectors) != len(records) {
					return nil, fmt.Errorf("embedder returned %d vectors for %d records", len(vectors), len(records))
				}

				out := make([]core.Record, len(records))
				for i, record := range records {
					r := record.Clone()
					r["vector"] = normalizeVector(vectors[i])
					out[i] = r
				}

				if cfg.BoolValue("persist", false) {
					if err := persistSegments(ctx, segments, cfg, out); err != nil {
						return nil, err
					}
				}

				sc.Logger.Info("embedding finished", "records", len(out))

				return &step.Output{Records: out}, nil
			},
			Rollback: func(ctx context.Context, snapshot *core.RollbackSnapshot, sc step.Context) error {
				cfg := step.Config(snapshot.Config)
				if !cfg.BoolValue("persist", false) || segments == nil {
					return nil
				}
				datasetID := cfg.StringValue("datasetId", "")
				if datasetID == "" {
					return nil
				}

				// Best effort: remove the dataset's segments whose content
				// matches a snapshot record.
				stored, err := segments.FindByDatasetID(ctx, datasetID)
				if err != nil {
					return err
				}
				snapshotContent := make(map[string]bool, len(snapshot.Records))
				for _, r := range snapshot.Records {
					snapshotContent[r.Content] = true
				}
				var doomed []core.ID
				for _, seg := range stored {
					if snapshotContent[seg.Content] {
						doomed = append(doomed, seg.Id)
					}
				}
				if len(doomed) == 0 {
					return nil
				}
				sc.Logger.Info("rolling back persisted segments",
					"dataset", datasetID, "count", len(doomed))
				return segments.DeleteSegments(ctx, doomed...)
			},
		},
	})
}

// persistSegments writes embedded records to storage.
func persistSegments(ctx context.Context, repo storage.SegmentRepository, cfg step.Config, records []core.Record) error {
	datasetID := cfg.StringValue("datasetId", "")
	documentID := cfg.StringValue("documentId", "")

	toStore := make([]*core.Segment, len(records))
	for i, record := range records {
		seg := core.SegmentFromRecord(datasetID, documentID, record)
		if v, ok := record["vector"].([]float32); ok {
			seg.Vector = v
		}
		toStore[i] = seg
	}

	if _, err := repo.AddSegments(ctx, toStore...); err != nil {
		return fmt.Errorf("persisting segments: %w", err)
	}
	return nil
}

// normalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func normalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	if magnitude == 0 {
		return make([]float32, len(v))
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}
