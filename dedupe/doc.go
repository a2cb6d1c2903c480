// Package dedupe classifies records as duplicates using exact content hashing
// or fuzzy Jaccard word-set similarity.
//
// A Detector accumulates state across one record sequence: an append-only
// arena of kept entries (content hash plus cached word set) and a
// hash-to-index map. Records are classified in strict left-to-right order and
// the first occurrence of any content always wins. A Detector is owned by a
// single invocation and must not be shared or reused across sequences.
//
// Similarity mode carries two cost safeguards for very large runs: direct
// comparisons are capped per record, with the remaining kept entries sampled
// at a stride, and for high thresholds a length-ratio pre-filter skips pairs
// that cannot reach the threshold. Both trade recall for bounded cost and
// are heuristics, not exact pruning.
package dedupe
