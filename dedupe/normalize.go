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
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText prepares content for comparison. The enabled stages always
// run in the same order: Unicode canonical decomposition, whitespace
// run-collapsing plus trim, case folding.
func normalizeText(text string, cfg Config) string {
	if cfg.NormalizeText {
		text = norm.NFD.String(text)
	}
	if cfg.IgnoreWhitespace {
		text = strings.Join(strings.Fields(text), " ")
	}
	if !cfg.CaseSensitive {
		text = strings.ToLower(text)
	}
	return text
}

// wordSet tokenizes normalized text into a lower-cased word set for Jaccard
// comparison. Tokenization is whitespace splitting only.
func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// jaccard computes |A∩B| / |A∪B| over two word sets, iterating the smaller
// set for the intersection. Two empty sets are identical (1.0); exactly one
// empty set shares nothing (0.0).
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	smaller, larger := a, b
	if len(b) < len(a) {
		smaller, larger = b, a
	}

	intersection := 0
	for w := range smaller {
		if _, ok := larger[w]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
