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

package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/refinery/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// GraphExtractor implements ai.GraphExtractor using OpenAI-compatible chat APIs.
type GraphExtractor struct {
	client        llms.Model
	minConfidence float64
	logger        *slog.Logger
}

// entity is an internal type used for JSON unmarshaling.
// It matches the structure expected by the LLM.
type entity struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// relation is an internal type used for JSON unmarshaling.
type relation struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Predicate  string  `json:"predicate"`
	Confidence float64 `json:"confidence"`
}

// graphAnalysis is the wrapper structure for the LLM's JSON response.
type graphAnalysis struct {
	Entities  []entity   `json:"entities"`
	Relations []relation `json:"relations"`
}

// newGraphExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGraphExtractor(config *ai.Config) (*GraphExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &GraphExtractor{
		client:        client,
		minConfidence: config.MinConfidence,
		logger:        slog.Default().With("component", "openai-graph"),
	}, nil
}

// NewGraphExtractor creates a new graph extractor using the provided configuration.
//
// Returns ai.GraphExtractor interface to enforce abstraction.
func NewGraphExtractor(config *ai.Config) (ai.GraphExtractor, error) {
	return newGraphExtractor(config)
}

// ExtractGraph extracts entities and relations from text using an LLM.
// It applies confidence filtering and returns only results above the minimum
// threshold. Relations referencing a filtered entity are dropped too.
func (e *GraphExtractor) ExtractGraph(ctx context.Context, text string) (*ai.Graph, error) {
	text = scrubString(text)

	systemPrompt := buildGraphPrompt()
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result graphAnalysis
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return &ai.Graph{}, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extraction response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse extraction response after retries", "err", lastErr)
		return nil, lastErr
	}

	graph := &ai.Graph{
		Entities:  make([]ai.Entity, 0, len(result.Entities)),
		Relations: make([]ai.Relation, 0, len(result.Relations)),
	}

	kept := make(map[string]bool, len(result.Entities))
	for _, ent := range result.Entities {
		if ent.Confidence < e.minConfidence {
			continue
		}
		kept[ent.Name] = true
		graph.Entities = append(graph.Entities, ai.Entity{
			Name:       ent.Name,
			Type:       strings.ReplaceAll(ent.Type, " ", "_"),
			Confidence: ent.Confidence,
		})
	}

	for _, rel := range result.Relations {
		if rel.Confidence < e.minConfidence {
			continue
		}
		if !kept[rel.Source] || !kept[rel.Target] {
			continue
		}
		graph.Relations = append(graph.Relations, ai.Relation{
			Source:     rel.Source,
			Target:     rel.Target,
			Predicate:  rel.Predicate,
			Confidence: rel.Confidence,
		})
	}

	// Sort by confidence (descending)
	slices.SortFunc(graph.Entities, func(a, b ai.Entity) int {
		if a.Confidence == b.Confidence {
			return 0
		}
		if a.Confidence < b.Confidence {
			return 1
		}
		return -1
	})

	e.logger.Debug("extracted graph",
		"entities", len(graph.Entities),
		"relations", len(graph.Relations),
		"rawEntities", len(result.Entities))

	return graph, nil
}
