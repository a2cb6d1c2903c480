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

package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/storage"
)

// DefaultMinSimilarity is the similarity floor below which segments are not
// considered hits.
const DefaultMinSimilarity = 0.60

// verbatimBoost is added to a hit's score when the segment contains every
// significant query word.
const verbatimBoost = 0.3

// Searcher provides semantic search over persisted segments.
type Searcher struct {
	segments      storage.SegmentRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the similarity floor for candidate hits.
// Default is DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(segments storage.SegmentRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		segments:      segments,
		embedder:      embedder,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds segments similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, maxHits, nil)
}

// SearchDataset is Search restricted to one dataset's segments.
func (s *Searcher) SearchDataset(ctx context.Context, datasetID, query string, maxHits int) ([]*core.SearchResult, error) {
	results, err := s.search(ctx, query, maxHits, &noopMonitor{}, func(seg *core.Segment) bool {
		return seg.DatasetID == datasetID
	})
	return results, err
}

// SearchWithMonitor searches with observation hooks at each stage.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	return s.search(ctx, query, maxHits, monitor, nil)
}

func (s *Searcher) search(ctx context.Context, query string, maxHits int, monitor SearchMonitor, keep func(*core.Segment) bool) ([]*core.SearchResult, error) {
	if maxHits <= 0 {
		return nil, ErrInvalidMaxHits
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(len(embedding))

	// Over-fetch so the verbatim boost can reorder before truncation, and so
	// a dataset filter still has candidates left.
	candidates, err := s.segments.FindSimilar(ctx, embedding, s.minSimilarity, maxHits*4)
	if err != nil {
		s.logger.Error("error querying for similar segments", "err", err)
		return nil, err
	}
	monitor.AfterSimilaritySearch(candidates)

	results := make([]*core.SearchResult, 0, len(candidates))
	for _, hit := range candidates {
		if keep != nil && !keep(hit.Segment) {
			continue
		}

		score := hit.Score
		if containsAllQueryWords(hit.Segment.Content, query) {
			score += verbatimBoost
			monitor.VerbatimHit(hit.Segment)
		}

		results = append(results, &core.SearchResult{
			Segment: hit.Segment,
			Score:   score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}
