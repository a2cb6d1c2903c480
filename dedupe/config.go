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
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Detection methods.
const (
	MethodHash       = "hash"
	MethodSimilarity = "similarity"
)

// Hash algorithms for MethodHash.
const (
	HashSHA256 = "sha256"
	HashMD5    = "md5"
)

// Config controls duplicate detection for one record sequence.
type Config struct {
	// Method selects exact (hash) or fuzzy (similarity) matching.
	Method string `validate:"oneof=hash similarity"`

	// SimilarityThreshold is the Jaccard score at or above which a record is
	// a duplicate. Only meaningful for MethodSimilarity. Always clamped into
	// [0,1] before use, however it arrives.
	SimilarityThreshold float64 `validate:"gte=0,lte=1"`

	// ContentField is the dot path addressing the text to compare.
	ContentField string `validate:"required"`

	// HashAlgorithm selects the content hash for MethodHash.
	HashAlgorithm string `validate:"oneof=sha256 md5"`

	// CaseSensitive disables case folding during normalization.
	// Comparison is case-insensitive by default.
	CaseSensitive bool

	// IgnoreWhitespace collapses whitespace runs and trims before comparison.
	IgnoreWhitespace bool

	// NormalizeText applies Unicode canonical decomposition before comparison.
	NormalizeText bool
}

// DefaultConfig returns the detection defaults: hash method over the
// "content" field, case-insensitive, whitespace and Unicode normalization on.
func DefaultConfig() Config {
	return Config{
		Method:              MethodHash,
		SimilarityThreshold: 0.8,
		ContentField:        "content",
		HashAlgorithm:       HashSHA256,
		IgnoreWhitespace:    true,
		NormalizeText:       true,
	}
}

var validate = validator.New()

// Validate checks the config against its declared constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ConfigFromMap decodes a loosely typed configuration map, applying defaults
// for absent keys and coercing the threshold from whatever type it arrived
// as. The threshold is clamped into [0,1]; out-of-range and unparseable
// values never survive decoding.
func ConfigFromMap(m map[string]any) Config {
	cfg := DefaultConfig()
	if m == nil {
		return cfg
	}

	if v, ok := m["method"].(string); ok && v != "" {
		cfg.Method = v
	}
	if v, ok := m["contentField"].(string); ok && v != "" {
		cfg.ContentField = v
	}
	if v, ok := m["hashAlgorithm"].(string); ok && v != "" {
		cfg.HashAlgorithm = v
	}
	if v, ok := m["caseSensitive"].(bool); ok {
		cfg.CaseSensitive = v
	}
	if v, ok := m["ignoreWhitespace"].(bool); ok {
		cfg.IgnoreWhitespace = v
	}
	if v, ok := m["normalizeText"].(bool); ok {
		cfg.NormalizeText = v
	}
	if v, ok := m["similarityThreshold"]; ok {
		cfg.SimilarityThreshold = ClampThreshold(coerceFloat(v, cfg.SimilarityThreshold))
	}

	return cfg
}

// ClampThreshold forces a similarity threshold into [0,1].
func ClampThreshold(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func coerceFloat(v any, fallback float64) float64 {
	switch tv := v.(type) {
	case float64:
		return tv
	case float32:
		return float64(tv)
	case int:
		return float64(tv)
	case int64:
		return float64(tv)
	case string:
		if f, err := strconv.ParseFloat(tv, 64); err == nil {
			return f
		}
		return fallback
	default:
		return fallback
	}
}

// Map renders the config back to its loosely typed form, as captured in
// rollback snapshots.
func (c Config) Map() map[string]any {
	return map[string]any{
		"method":              c.Method,
		"similarityThreshold": c.SimilarityThreshold,
		"contentField":        c.ContentField,
		"hashAlgorithm":       c.HashAlgorithm,
		"caseSensitive":       c.CaseSensitive,
		"ignoreWhitespace":    c.IgnoreWhitespace,
		"normalizeText":       c.NormalizeText,
	}
}
