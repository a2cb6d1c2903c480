package mock

import (
	"context"
	"strings"

	"github.com/poiesic/refinery/ai"
)

// MockGraphExtractor is a test double for ai.GraphExtractor.
// It allows custom behavior injection via function fields.
type MockGraphExtractor struct {
	// ExtractGraphFunc is called by ExtractGraph if set.
	// If nil, uses default simple word extraction.
	ExtractGraphFunc func(ctx context.Context, text string) (*ai.Graph, error)

	callCount int
}

// NewMockGraphExtractor creates a mock graph extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockGraphExtractor() *MockGraphExtractor {
	return &MockGraphExtractor{}
}

// ExtractGraph builds a trivial mock graph from text.
// Default behavior: the first few words become entities and consecutive
// entities are linked with a "related_to" relation.
func (m *MockGraphExtractor) ExtractGraph(ctx context.Context, text string) (*ai.Graph, error) {
	m.callCount++

	if m.ExtractGraphFunc != nil {
		return m.ExtractGraphFunc(ctx, text)
	}

	words := strings.Fields(strings.ToLower(text))
	graph := &ai.Graph{}
	confidence := 0.95

	for i, word := range words {
		// Limit to 5 entities
		if i >= 5 {
			break
		}

		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word == "" {
			continue
		}

		entityType := "abstract_concept"
		if len(word) > 5 {
			entityType = "man_made_object"
		}

		graph.Entities = append(graph.Entities, ai.Entity{
			Name:       word,
			Type:       entityType,
			Confidence: confidence,
		})

		if confidence > 0.5 {
			confidence -= 0.05
		}
	}

	for i := 1; i < len(graph.Entities); i++ {
		graph.Relations = append(graph.Relations, ai.Relation{
			Source:     graph.Entities[i-1].Name,
			Target:     graph.Entities[i].Name,
			Predicate:  "related_to",
			Confidence: graph.Entities[i].Confidence,
		})
	}

	return graph, nil
}

// CallCount returns the number of times ExtractGraph was called.
func (m *MockGraphExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockGraphExtractor) Reset() {
	m.callCount = 0
	m.ExtractGraphFunc = nil
}
