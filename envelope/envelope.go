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
	"sort"
	"strings"

	"github.com/poiesic/refinery/core"
)

// Kind identifies the input topology Normalize recognized.
type Kind int

const (
	// KindFlat is an input that was already a record sequence.
	KindFlat Kind = iota + 1
	// KindScalar is a bare record or primitive promoted to a one-record sequence.
	KindScalar
	// KindWrapped is a wrapper object holding one array-valued property.
	KindWrapped
	// KindDoublyWrapped is a wrapper whose array holds a further "data" array.
	KindDoublyWrapped
	// KindAmbiguous is a wrapper with more than one qualifying array property.
	// The lexicographically first key is used and a warning is attached.
	KindAmbiguous
)

// innerDataKey is the only key the normalizer descends into for the second
// unwrapping level.
const innerDataKey = "data"

// Envelope is the result of one normalization pass: a tagged union over the
// recognized input topologies, plus the record sequence and the adjusted
// content-field path.
type Envelope struct {
	Kind         Kind
	WrapperKey   string // key consumed at the first unwrapping level
	InnerKey     string // key consumed at the second level ("data" or empty)
	Records      []core.Record
	ContentField string // caller's path, minus any consumed wrapper segments
	Warnings     []string
}

// Normalize resolves an arbitrarily wrapped input value to a flat record
// sequence. Resolution is deterministic for a given input topology and never
// mutates the input.
//
// Wrapper property scanning iterates keys in sorted order: decoded JSON
// objects carry no insertion order in Go, so sorted order is the
// deterministic stand-in for "first encountered". Inputs where more than one
// property qualifies are tagged KindAmbiguous.
func Normalize(input any, contentField string) Envelope {
	switch v := input.(type) {
	case nil:
		return Envelope{Kind: KindFlat, Records: []core.Record{}, ContentField: contentField}
	case []core.Record:
		items := make([]any, len(v))
		for i, r := range v {
			items[i] = map[string]any(r)
		}
		return normalizeSequence(items, contentField)
	case []map[string]any:
		items := make([]any, len(v))
		for i, r := range v {
			items[i] = r
		}
		return normalizeSequence(items, contentField)
	case []any:
		return normalizeSequence(v, contentField)
	case map[string]any:
		// Bare object: apply the wrapper scan directly on it.
		if env, ok := unwrapObject(v, contentField); ok {
			return env
		}
		return Envelope{Kind: KindScalar, Records: []core.Record{coerceRecord(v)}, ContentField: contentField}
	case core.Record:
		return Normalize(map[string]any(v), contentField)
	default:
		// Bare primitive: promote to a one-record sequence.
		return Envelope{Kind: KindScalar, Records: []core.Record{coerceRecord(v)}, ContentField: contentField}
	}
}

func normalizeSequence(items []any, contentField string) Envelope {
	if len(items) != 1 {
		return Envelope{Kind: KindFlat, Records: coerceRecords(items), ContentField: contentField}
	}

	sole, ok := items[0].(map[string]any)
	if !ok {
		return Envelope{Kind: KindFlat, Records: coerceRecords(items), ContentField: contentField}
	}

	if env, ok := unwrapObject(sole, contentField); ok {
		return env
	}

	// Single object with no qualifying array property: use as-is.
	return Envelope{Kind: KindFlat, Records: coerceRecords(items), ContentField: contentField}
}

// unwrapObject scans obj for array-valued properties whose elements are
// objects and, when one is found, unwraps one level (or two, via the inner
// "data" array). Returns false when no property qualifies.
func unwrapObject(obj map[string]any, contentField string) (Envelope, bool) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var qualifying []string
	for _, k := range keys {
		if arr, ok := obj[k].([]any); ok && isRecordArray(arr) {
			qualifying = append(qualifying, k)
		}
	}
	if len(qualifying) == 0 {
		return Envelope{}, false
	}

	key := qualifying[0]
	arr := obj[key].([]any)

	env := Envelope{Kind: KindWrapped, WrapperKey: key}
	if len(qualifying) > 1 {
		env.Kind = KindAmbiguous
		env.Warnings = append(env.Warnings, fmt.Sprintf(
			"ambiguous envelope: %d array properties qualify (%s), using %q",
			len(qualifying), strings.Join(qualifying, ", "), key))
	}

	contentField = stripPathPrefix(contentField, key)

	// One further level: the array's first element may itself wrap a "data"
	// array, which models the doubly-nested producer shape.
	if first, ok := arr[0].(map[string]any); ok {
		if inner, ok := first[innerDataKey].([]any); ok && len(inner) > 0 {
			if env.Kind != KindAmbiguous {
				env.Kind = KindDoublyWrapped
			}
			env.InnerKey = innerDataKey
			env.Records = coerceRecords(inner)
			env.ContentField = stripPathPrefix(contentField, innerDataKey)
			return env, true
		}
	}

	env.Records = coerceRecords(arr)
	env.ContentField = contentField
	return env, true
}

// isRecordArray reports whether an array looks like a record sequence: at
// least one element, with an object in first position.
func isRecordArray(arr []any) bool {
	if len(arr) == 0 {
		return false
	}
	_, ok := arr[0].(map[string]any)
	return ok
}

// stripPathPrefix removes a consumed wrapper key from the front of a dot
// path, keeping the path tracking the same unwrapping the data underwent.
func stripPathPrefix(path, key string) string {
	if path == "" || key == "" {
		return path
	}
	if strings.HasPrefix(path, key+".") {
		return path[len(key)+1:]
	}
	return path
}

func coerceRecords(items []any) []core.Record {
	out := make([]core.Record, len(items))
	for i, item := range items {
		out[i] = coerceRecord(item)
	}
	return out
}

// coerceRecord adapts one sequence element to a Record. Non-object elements
// are preserved under "value"; their content fields resolve to empty text and
// flow through the same duplicate rules as any empty record.
func coerceRecord(item any) core.Record {
	switch v := item.(type) {
	case map[string]any:
		return core.Record(v)
	case core.Record:
		return v
	case nil:
		return core.Record{}
	default:
		return core.Record{"value": v}
	}
}
