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

package mock

import "github.com/poiesic/refinery/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock embedder, chat client and graph extractor instances.
type MockProvider struct {
	embedder  *MockEmbedder
	chat      *MockChatClient
	extractor *MockGraphExtractor
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockChatClient()/GetMockExtractor() to access
// concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		chat:      NewMockChatClient(),
		extractor: NewMockGraphExtractor(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, chat *MockChatClient, extractor *MockGraphExtractor) ai.Provider {
	return &MockProvider{
		embedder:  embedder,
		chat:      chat,
		extractor: extractor,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// ChatClient returns the mock chat client.
func (p *MockProvider) ChatClient() ai.ChatClient {
	return p.chat
}

// GraphExtractor returns the mock graph extractor.
func (p *MockProvider) GraphExtractor() ai.GraphExtractor {
	return p.extractor
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockChatClient returns the underlying mock chat client for test assertions.
func (p *MockProvider) GetMockChatClient() *MockChatClient {
	return p.chat
}

// GetMockExtractor returns the underlying mock graph extractor for test assertions.
func (p *MockProvider) GetMockExtractor() *MockGraphExtractor {
	return p.extractor
}
