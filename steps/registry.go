package steps

import (
	"fmt"
	"sort"

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/condition"
	"github.com/poiesic/refinery/step"
	"github.com/poiesic/refinery/storage"
)

// Registry bundles the step collaborators and hands out runners by type.
// It is safe for concurrent use after construction.
type Registry struct {
	runners map[string]*step.Runner
}

// NewRegistry creates a registry with all built-in steps wired to the given
// collaborators. The segment repository may be nil; the embed step then
// rejects persist configs.
func NewRegistry(provider ai.Provider, evaluator *condition.Evaluator, segments storage.SegmentRepository) *Registry {
	return &Registry{
		runners: map[string]*step.Runner{
			TypeDeduplication: NewDeduplication(),
			TypeFilter:        NewFilter(evaluator),
			TypeSummarize:     NewSummarize(provider.ChatClient()),
			TypeEmbed:         NewEmbed(provider.Embedder(), segments),
			TypeGraph:         NewGraph(provider.GraphExtractor()),
		},
	}
}

// Runner returns the runner for a step type.
func (r *Registry) Runner(stepType string) (*step.Runner, error) {
	runner, ok := r.runners[stepType]
	if !ok {
		return nil, fmt.Errorf("unknown step type %q", stepType)
	}
	return runner, nil
}

// Types returns the registered step types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.runners))
	for t := range r.runners {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
