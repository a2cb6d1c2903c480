package mock

import (
	"context"

	"github.com/poiesic/refinery/ai"
)

// MockChatClient is a test double for ai.ChatClient.
// It allows custom behavior injection via function fields.
type MockChatClient struct {
	// ChatCompletionFunc is called by ChatCompletion if set.
	// If nil, uses default echo behavior.
	ChatCompletionFunc func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)

	callCount int
}

// NewMockChatClient creates a mock chat client with default echo behavior.
// Note: Returns concrete type to allow test assertions via GetMockChatClient().
func NewMockChatClient() *MockChatClient {
	return &MockChatClient{}
}

// ChatCompletion returns a mock completion.
// Default behavior: echoes the last user message prefixed with "mock: ".
func (m *MockChatClient) ChatCompletion(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	m.callCount++

	if m.ChatCompletionFunc != nil {
		return m.ChatCompletionFunc(ctx, req)
	}

	content := "mock: "
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			content += req.Messages[i].Content
			break
		}
	}

	return &ai.ChatResponse{
		Choices: []ai.ChatChoice{
			{Content: content, FinishReason: "stop"},
		},
		Usage: ai.ChatUsage{
			PromptTokens:     len(content),
			CompletionTokens: len(content),
			TotalTokens:      2 * len(content),
		},
	}, nil
}

// CallCount returns the number of times ChatCompletion was called.
func (m *MockChatClient) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockChatClient) Reset() {
	m.callCount = 0
	m.ChatCompletionFunc = nil
}
