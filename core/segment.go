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

import "time"

// Segment is a persisted unit of refined content, tied to the dataset and
// document it came from. It is the stored counterpart of a Record: steps work
// on schema-less records in memory; what survives a pipeline run is persisted
// as segments.
type Segment struct {
	Id         ID
	DatasetID  string
	DocumentID string
	Content    string
	Position   int
	Status     string
	Hash       string    // Content hash as computed by the deduplication step
	Vector     []float32 // Embedding vector (populated by the embed step)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Record converts a segment back to the schema-less record shape steps
// work on.
func (s *Segment) Record() Record {
	r := Record{
		FieldContent:  s.Content,
		FieldPosition: s.Position,
		FieldStatus:   s.Status,
		"datasetId":   s.DatasetID,
		"documentId":  s.DocumentID,
	}
	if s.Id != 0 {
		r[FieldID] = uint64(s.Id)
	}
	if s.Hash != "" {
		r["hash"] = s.Hash
	}
	return r
}

// SegmentFromRecord projects a record to the stored segment shape.
// Fields the record does not carry are left zero.
func SegmentFromRecord(datasetID, documentID string, r Record) *Segment {
	return &Segment{
		DatasetID:  datasetID,
		DocumentID: documentID,
		Content:    r.StringField(FieldContent),
		Position:   r.IntField(FieldPosition),
		Status:     r.StringField(FieldStatus),
		Hash:       r.StringField("hash"),
	}
}

// SearchResult represents a similarity search hit with the full segment and
// relevance score.
type SearchResult struct {
	Segment *Segment
	Score   float32
}
