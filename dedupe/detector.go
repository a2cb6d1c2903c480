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

package dedupe

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/envelope"
)

const (
	// maxDirectComparisons caps per-record similarity comparisons.
	maxDirectComparisons = 100

	// sampleTarget is roughly how many kept entries beyond the cap are still
	// checked, at a stride. Trades recall for bounded cost on large runs.
	sampleTarget = 50

	// lengthRatioFactor scales the threshold for the length pre-filter.
	lengthRatioFactor = 0.7
)

// entry is one kept record in the accumulation arena. The arena is
// append-only and entries are compared in insertion order, which keeps the
// first-occurrence-wins invariant auditable.
type entry struct {
	hash   string
	words  map[string]struct{}
	length int // length of the normalized content
}

// Classification is the verdict for one record.
type Classification struct {
	Duplicate  bool
	MatchIndex int     // kept-output index of the matched record, -1 if none
	Similarity float64 // Jaccard score of the match, 1.0 for exact matches
}

// Result is the outcome of detecting over a whole sequence. Kept preserves
// input relative order; Kept plus Duplicates always partition the input.
type Result struct {
	Kept           []core.Record
	Duplicates     []core.Record
	Total          int
	DuplicateCount int
}

// Detector classifies records against everything kept so far. State is
// mutated in strict left-to-right order and is owned by one invocation;
// detectors are not safe for concurrent use and must not be reused across
// sequences.
type Detector struct {
	cfg       Config
	extractor *envelope.Extractor
	logger    *slog.Logger

	arena     []entry
	hashIndex map[string]int // content hash -> arena index
}

// NewDetector creates a detector for one record sequence. The threshold is
// clamped defensively even when the config was built elsewhere.
func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.SimilarityThreshold = ClampThreshold(cfg.SimilarityThreshold)
	return &Detector{
		cfg:       cfg,
		extractor: envelope.NewExtractor(logger),
		logger:    logger,
		hashIndex: make(map[string]int),
	}
}

// Detect runs the whole sequence through Classify and partitions it.
func (d *Detector) Detect(records []core.Record) Result {
	result := Result{
		Kept:       make([]core.Record, 0, len(records)),
		Duplicates: make([]core.Record, 0),
		Total:      len(records),
	}

	for _, record := range records {
		c := d.Classify(record)
		if c.Duplicate {
			result.Duplicates = append(result.Duplicates, record)
			result.DuplicateCount++
		} else {
			result.Kept = append(result.Kept, record)
		}
	}

	return result
}

// Classify decides whether record duplicates anything kept so far and, when
// it does not, adds it to the arena. Empty content is compared like any
// other content: two empty records are an exact duplicate pair on purpose.
func (d *Detector) Classify(record core.Record) Classification {
	content := d.extractor.Extract(record, d.cfg.ContentField)
	normalized := normalizeText(content, d.cfg)

	switch d.cfg.Method {
	case MethodSimilarity:
		return d.classifySimilarity(normalized)
	default:
		return d.classifyHash(normalized)
	}
}

func (d *Detector) classifyHash(normalized string) Classification {
	h := d.hashContent(normalized)

	if idx, seen := d.hashIndex[h]; seen {
		return Classification{Duplicate: true, MatchIndex: idx, Similarity: 1.0}
	}

	d.append(entry{hash: h, length: len(normalized)})
	return Classification{MatchIndex: -1}
}

func (d *Detector) classifySimilarity(normalized string) Classification {
	// Threshold 0 is a defined special case: everything after the first
	// record is a duplicate, skipping degenerate union/intersection math.
	if d.cfg.SimilarityThreshold == 0 && len(d.arena) > 0 {
		return Classification{Duplicate: true, MatchIndex: 0, Similarity: 1.0}
	}

	// An exact-hash hit avoids the set comparison entirely.
	h := d.hashContent(normalized)
	if idx, seen := d.hashIndex[h]; seen {
		return Classification{Duplicate: true, MatchIndex: idx, Similarity: 1.0}
	}

	words := wordSet(normalized)

	if idx, score, found := d.findSimilar(normalized, words); found {
		return Classification{Duplicate: true, MatchIndex: idx, Similarity: score}
	}

	d.append(entry{hash: h, words: words, length: len(normalized)})
	return Classification{MatchIndex: -1}
}

// findSimilar scans the arena in insertion order. The first
// maxDirectComparisons entries are checked directly; anything beyond is
// sampled at a stride chosen so roughly sampleTarget extra entries are
// checked. Sampling can miss matches; that loss of recall is the documented
// price of bounded cost on very large runs.
func (d *Detector) findSimilar(normalized string, words map[string]struct{}) (int, float64, bool) {
	threshold := d.cfg.SimilarityThreshold

	direct := len(d.arena)
	if direct > maxDirectComparisons {
		direct = maxDirectComparisons
	}

	for i := 0; i < direct; i++ {
		if score, ok := d.compare(i, normalized, words, threshold); ok {
			return i, score, true
		}
	}

	remaining := len(d.arena) - direct
	if remaining <= 0 {
		return 0, 0, false
	}

	stride := remaining / sampleTarget
	if stride < 1 {
		stride = 1
	}
	sampled := 0
	for i := direct; i < len(d.arena); i += stride {
		if score, ok := d.compare(i, normalized, words, threshold); ok {
			return i, score, true
		}
		sampled++
	}
	d.logger.Debug("similarity scan sampled beyond comparison cap",
		"arena", len(d.arena), "direct", direct, "sampled", sampled, "stride", stride)

	return 0, 0, false
}

// compare checks one arena entry against the candidate word set.
func (d *Detector) compare(i int, normalized string, words map[string]struct{}, threshold float64) (float64, bool) {
	e := d.arena[i]

	// High thresholds admit a cheap length pre-filter: a pair whose
	// normalized-length ratio falls below threshold×0.7 cannot reach the
	// threshold under Jaccard similarity on natural text. Heuristic pruning,
	// not exact.
	if threshold > 0.8 {
		shorter, longer := len(normalized), e.length
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		if longer > 0 && float64(shorter)/float64(longer) < threshold*lengthRatioFactor {
			return 0, false
		}
	}

	score := jaccard(words, e.words)
	return score, score >= threshold
}

func (d *Detector) append(e entry) {
	d.hashIndex[e.hash] = len(d.arena)
	d.arena = append(d.arena, e)
}

func (d *Detector) hashContent(normalized string) string {
	switch d.cfg.HashAlgorithm {
	case HashMD5:
		sum := md5.Sum([]byte(normalized))
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256([]byte(normalized))
		return hex.EncodeToString(sum[:])
	}
}
