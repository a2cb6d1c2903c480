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
	"strings"

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/envelope"
	"github.com/poiesic/refinery/step"
)

// TypeSummarize identifies the summarization step.
const TypeSummarize = "summarize"

const summarySystemPrompt = `Summarize the given text segments into a single concise summary.
Preserve the key facts and named entities. Do not add information that is not in the segments.
Respond with the summary only, no preamble.`

// NewSummarize creates the summarization step. It condenses the whole batch
// into a single summary record produced by the chat collaborator.
func NewSummarize(chat ai.ChatClient) *step.Runner {
	return step.NewRunner(step.Definition{
		Meta: step.Metadata{
			Type:        TypeSummarize,
			Name:        "Summarization",
			InputTypes:  []string{"segments"},
			OutputTypes: []string{"summary"},
			ConfigSchema: step.Schema{
				Properties: map[string]step.Property{
					"contentField": {
						Type:        "string",
						Description: "Dot path addressing the text to summarize",
						Default:     "content",
					},
					"maxTokens": {
						Type:        "number",
						Description: "Completion length limit, 0 for provider default",
						Default:     0,
					},
				},
			},
		},
		Hooks: step.Hooks{
			ShouldExecute: func(ctx context.Context, records []core.Record, cfg step.Config, sc step.Context) bool {
				// Nothing to summarize
				return len(records) > 0
			},
			Execute: func(ctx context.Context, records []core.Record, cfg step.Config, sc step.Context) (*step.Output, error) {
				contentField := cfg.StringValue("contentField", "content")
				extractor := envelope.NewExtractor(sc.Logger)

				var warnings []string
				parts := make([]string, 0, len(records))
				for i, record := range records {
					content := extractor.Extract(record, contentField)
					if content == "" {
						warnings = append(warnings, fmt.Sprintf("record %d has no content at %q", i, contentField))
						continue
					}
					parts = append(parts, content)
				}
				if len(parts) == 0 {
					return nil, fmt.Errorf("no content to summarize at %q", contentField)
				}

				resp, err := chat.ChatCompletion(ctx, ai.ChatRequest{
					Messages: []ai.ChatMessage{
						{Role: "system", Content: summarySystemPrompt},
						{Role: "user", Content: strings.Join(parts, "\n\n")},
					},
					MaxTokens: intValue(cfg, "maxTokens", 0),
				})
				if err != nil {
					return nil, fmt.Errorf("summarization failed: %w", err)
				}

				summary := core.Record{
					core.FieldContent:  resp.Text(),
					core.FieldPosition: 0,
					core.FieldStatus:   "summarized",
					"sourceCount":      len(records),
				}

				sc.Logger.Info("summarization finished",
					"sources", len(parts),
					"totalTokens", resp.Usage.TotalTokens)

				return &step.Output{
					Records:  []core.Record{summary},
					Warnings: warnings,
					Extra: map[string]any{
						"totalTokens": resp.Usage.TotalTokens,
					},
				}, nil
			},
		},
	})
}

// intValue reads a numeric config value tolerantly; pipeline files decode
// numbers as several Go types.
func intValue(cfg step.Config, key string, fallback int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}
