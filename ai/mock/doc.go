// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ChatClient,
// ai.GraphExtractor and ai.Provider for use in unit tests. The mocks allow
// tests to run without external AI service dependencies and enable
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockChat := mock.NewMockChatClient()
//	mockChat.ChatCompletionFunc = func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
//	    return &ai.ChatResponse{Choices: []ai.ChatChoice{{Content: "summary"}}}, nil
//	}
//
//	// Check call counts
//	count := mockChat.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockChatClient: Echoes the last user message
//   - MockGraphExtractor: Builds a trivial graph from words in text
//   - MockProvider: Aggregates the mock services
package mock
