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
	"errors"
	"log/slog"

	"github.com/poiesic/refinery/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatClient implements ai.ChatClient using OpenAI-compatible chat APIs.
type ChatClient struct {
	client llms.Model
	logger *slog.Logger
}

// newChatClient is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChatClient(config *ai.Config) (*ChatClient, error) {
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

	return &ChatClient{
		client: client,
		logger: slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatClient creates a new chat client using the provided configuration.
//
// Returns ai.ChatClient interface to enforce abstraction.
func NewChatClient(config *ai.Config) (ai.ChatClient, error) {
	return newChatClient(config)
}

// ChatCompletion sends the conversation to the model and returns its response.
func (c *ChatClient) ChatCompletion(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("chat completion requires at least one message")
	}

	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content = append(content, llms.MessageContent{
			Role:  messageRole(msg.Role),
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}

	response, err := c.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		c.logger.Error("failed to generate content", "err", err)
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}

	result := &ai.ChatResponse{
		Choices: make([]ai.ChatChoice, 0, len(response.Choices)),
	}
	for _, choice := range response.Choices {
		result.Choices = append(result.Choices, ai.ChatChoice{
			Content:      choice.Content,
			FinishReason: choice.StopReason,
		})
		if choice.GenerationInfo != nil {
			if v, ok := choice.GenerationInfo["PromptTokens"].(int); ok {
				result.Usage.PromptTokens = v
			}
			if v, ok := choice.GenerationInfo["CompletionTokens"].(int); ok {
				result.Usage.CompletionTokens = v
			}
			if v, ok := choice.GenerationInfo["TotalTokens"].(int); ok {
				result.Usage.TotalTokens = v
			}
		}
	}

	c.logger.Debug("chat completion succeeded",
		"choices", len(result.Choices),
		"totalTokens", result.Usage.TotalTokens)

	return result, nil
}

// messageRole maps a portable role string to the langchaingo message type.
// Unknown roles are treated as user messages.
func messageRole(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
