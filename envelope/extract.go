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

package envelope

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/refinery/core"
)

// wrapperKeys are well-known wrapper property names. A dot-path segment
// naming one of these may be dropped during traversal when it is absent on
// the record, mirroring the unwrapping the sequence itself underwent.
var wrapperKeys = map[string]bool{
	"items":    true,
	"data":     true,
	"results":  true,
	"segments": true,
	"output":   true,
}

// Extractor resolves dot-separated content-field paths against individual
// records. Missing or unreadable fields are recoverable: they resolve to the
// empty string and a warning, never an error.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor. A nil logger falls back to slog.Default().
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract resolves path against record and returns the value stringified.
//
// Resolution order:
//   - no dot: direct property lookup
//   - with dots: segment-by-segment traversal, dropping absent well-known
//     wrapper segments
//   - stuck mid-path: fall back to the final path segment at the current
//     level, then at the record's top level
//
// nil and missing values resolve to ""; non-string values are stringified.
func (e *Extractor) Extract(record core.Record, path string) string {
	if record == nil {
		e.logger.Warn("field extraction on non-object record", "path", path)
		return ""
	}
	if path == "" {
		return ""
	}

	if !strings.Contains(path, ".") {
		v, ok := record[path]
		if !ok || v == nil {
			e.logger.Warn("content field missing", "path", path)
			return ""
		}
		return stringify(v)
	}

	segments := strings.Split(path, ".")
	current := map[string]any(record)

	for i, seg := range segments {
		last := i == len(segments)-1

		v, present := current[seg]
		if !present {
			// Absent wrapper segments are dropped: the record may already
			// have been unwrapped past them.
			if wrapperKeys[seg] && !last {
				continue
			}
			return e.fallback(record, current, segments, path)
		}

		if last {
			if v == nil {
				e.logger.Warn("content field is null", "path", path)
				return ""
			}
			return stringify(v)
		}

		next, ok := asObject(v)
		if !ok {
			return e.fallback(record, current, segments, path)
		}
		current = next
	}

	return e.fallback(record, current, segments, path)
}

// fallback looks for the final path segment at the level traversal got stuck
// on, then at the record's top level, before giving up with empty content.
func (e *Extractor) fallback(record core.Record, current map[string]any, segments []string, path string) string {
	final := segments[len(segments)-1]

	if v, ok := current[final]; ok && v != nil {
		return stringify(v)
	}
	if v, ok := record[final]; ok && v != nil {
		return stringify(v)
	}

	e.logger.Warn("content field unresolvable", "path", path)
	return ""
}

func asObject(v any) (map[string]any, bool) {
	switch tv := v.(type) {
	case map[string]any:
		return tv, true
	case core.Record:
		return map[string]any(tv), true
	default:
		return nil, false
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
