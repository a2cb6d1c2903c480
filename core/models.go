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

package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Well-known record fields. Records are schema-less; these names are only
// conventions shared by steps and the rollback projection.
const (
	FieldID       = "id"
	FieldContent  = "content"
	FieldPosition = "position"
	FieldStatus   = "status"
)

// Record is one schema-less unit of work flowing through a step.
// It conventionally carries id, content, position and status, plus whatever
// extra fields upstream steps have attached. No shape is guaranteed beyond
// what a step's configuration declares it needs.
type Record map[string]any

// StringField returns the named field stringified, or "" when the field is
// missing or nil. Non-string values are formatted with fmt.
func (r Record) StringField(name string) string {
	if r == nil {
		return ""
	}
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// IntField returns the named field as an int, or 0 when it is missing or not
// numeric.
func (r Record) IntField(name string) int {
	if r == nil {
		return 0
	}
	switch v := r[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	}
	return 0
}

// Clone returns a copy of the record deep enough that mutating nested maps
// and slices of the copy never aliases the original.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = cloneValue(e)
		}
		return out
	case Record:
		return map[string]any(tv.Clone())
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// CloneRecords copies a record sequence, preserving order.
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// SnapshotRecord is the minimal projection of a record kept for rollback.
type SnapshotRecord struct {
	Id       string
	Content  string
	Status   string
	Position int
}

// RollbackSnapshot captures pre-execution state so a step's effects can be
// best-effort undone. It is owned by the step that created it; in composite
// chains it is replayed in reverse order by the chain.
type RollbackSnapshot struct {
	StepType    string
	ExecutionId string
	Config      map[string]any
	Records     []SnapshotRecord
	CreatedAt   time.Time
}

// Snapshot projects a record sequence down to the rollback fields.
// The projection always reads the pre-execution input, never step output.
func Snapshot(stepType, executionID string, config map[string]any, records []Record) *RollbackSnapshot {
	projected := make([]SnapshotRecord, len(records))
	for i, r := range records {
		projected[i] = SnapshotRecord{
			Id:       r.StringField(FieldID),
			Content:  r.StringField(FieldContent),
			Status:   r.StringField(FieldStatus),
			Position: r.IntField(FieldPosition),
		}
	}
	return &RollbackSnapshot{
		StepType:    stepType,
		ExecutionId: executionID,
		Config:      config,
		Records:     projected,
		CreatedAt:   time.Now(),
	}
}

// Metrics describes one step invocation. It is computed on every path:
// success, skip and error alike.
type Metrics struct {
	InputCount        int
	OutputCount       int
	Elapsed           time.Duration
	Throughput        float64 // records per second, 0 when Elapsed is 0
	AvgProcessingTime time.Duration
	Extra             map[string]any // step-specific counters
}

// ComputeMetrics derives throughput and per-record averages from raw counts.
func ComputeMetrics(inputCount, outputCount int, elapsed time.Duration) Metrics {
	m := Metrics{
		InputCount:  inputCount,
		OutputCount: outputCount,
		Elapsed:     elapsed,
	}
	if elapsed > 0 {
		m.Throughput = float64(inputCount) / elapsed.Seconds()
	}
	if inputCount > 0 {
		m.AvgProcessingTime = elapsed / time.Duration(inputCount)
	}
	return m
}

// ExecutionResult is the outcome of one step invocation. It is constructed
// once per invocation and never partially filled: on any failure path Output
// defaults to the original input so downstream consumers can continue.
type ExecutionResult struct {
	Success  bool
	Output   []Record
	Metrics  Metrics
	Error    string
	Warnings []string
	Rollback *RollbackSnapshot
}

// RollbackResult reports the outcome of a rollback operation.
type RollbackResult struct {
	Success bool
	Error   string
}

// Validation is the outcome of validating a step configuration.
type Validation struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// Valid returns a passing validation.
func Valid() Validation {
	return Validation{IsValid: true}
}

// Invalid returns a failing validation with the given errors.
func Invalid(errs ...string) Validation {
	return Validation{IsValid: false, Errors: errs}
}

// Merge combines another validation into this one. The result is valid only
// when both are.
func (v Validation) Merge(other Validation) Validation {
	return Validation{
		IsValid:  v.IsValid && other.IsValid,
		Errors:   append(append([]string{}, v.Errors...), other.Errors...),
		Warnings: append(append([]string{}, v.Warnings...), other.Warnings...),
	}
}
