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
	"encoding/json"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the types the storage layer persists. The stored
// shapes are few and small, so these are written by hand rather than
// generated. Timestamps are encoded as Unix micro.

var (
	// IDMUS serializes IDs.
	IDMUS = idMUS{}

	// SegmentMUS serializes Segments.
	SegmentMUS = segmentMUS{}

	// RollbackSnapshotMUS serializes RollbackSnapshots.
	RollbackSnapshotMUS = rollbackSnapshotMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type segmentMUS struct{}

func (segmentMUS) Marshal(s Segment, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(s.Id), bs)
	n += ord.String.Marshal(s.DatasetID, bs[n:])
	n += ord.String.Marshal(s.DocumentID, bs[n:])
	n += ord.String.Marshal(s.Content, bs[n:])
	n += varint.Int.Marshal(s.Position, bs[n:])
	n += ord.String.Marshal(s.Status, bs[n:])
	n += ord.String.Marshal(s.Hash, bs[n:])
	n += marshalVector(s.Vector, bs[n:])
	n += marshalTime(s.InsertedAt, bs[n:])
	n += marshalTime(s.UpdatedAt, bs[n:])
	return n
}

func (segmentMUS) Unmarshal(bs []byte) (s Segment, n int, err error) {
	var (
		id uint64
		n1 int
	)
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	s.Id = ID(id)
	s.DatasetID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.DocumentID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Position, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Status, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Hash, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Vector, n1, err = unmarshalVector(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (segmentMUS) Size(s Segment) (size int) {
	size = varint.Uint64.Size(uint64(s.Id))
	size += ord.String.Size(s.DatasetID)
	size += ord.String.Size(s.DocumentID)
	size += ord.String.Size(s.Content)
	size += varint.Int.Size(s.Position)
	size += ord.String.Size(s.Status)
	size += ord.String.Size(s.Hash)
	size += sizeVector(s.Vector)
	size += sizeTime(s.InsertedAt)
	size += sizeTime(s.UpdatedAt)
	return size
}

type rollbackSnapshotMUS struct{}

func (rollbackSnapshotMUS) Marshal(s RollbackSnapshot, bs []byte) (n int) {
	n = ord.String.Marshal(s.StepType, bs)
	n += ord.String.Marshal(s.ExecutionId, bs[n:])
	n += ord.String.Marshal(configJSON(s.Config), bs[n:])
	n += varint.Int.Marshal(len(s.Records), bs[n:])
	for _, r := range s.Records {
		n += ord.String.Marshal(r.Id, bs[n:])
		n += ord.String.Marshal(r.Content, bs[n:])
		n += ord.String.Marshal(r.Status, bs[n:])
		n += varint.Int.Marshal(r.Position, bs[n:])
	}
	n += marshalTime(s.CreatedAt, bs[n:])
	return n
}

func (rollbackSnapshotMUS) Unmarshal(bs []byte) (s RollbackSnapshot, n int, err error) {
	var n1 int
	s.StepType, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	s.ExecutionId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var cfg string
	cfg, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if cfg != "" {
		if err = json.Unmarshal([]byte(cfg), &s.Config); err != nil {
			return
		}
	}
	var count int
	count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Records = make([]SnapshotRecord, count)
	for i := 0; i < count; i++ {
		s.Records[i].Id, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		s.Records[i].Content, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		s.Records[i].Status, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		s.Records[i].Position, n1, err = varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	s.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (rollbackSnapshotMUS) Size(s RollbackSnapshot) (size int) {
	size = ord.String.Size(s.StepType)
	size += ord.String.Size(s.ExecutionId)
	size += ord.String.Size(configJSON(s.Config))
	size += varint.Int.Size(len(s.Records))
	for _, r := range s.Records {
		size += ord.String.Size(r.Id)
		size += ord.String.Size(r.Content)
		size += ord.String.Size(r.Status)
		size += varint.Int.Size(r.Position)
	}
	size += sizeTime(s.CreatedAt)
	return size
}

// configJSON encodes the schema-less step config as JSON. Config values come
// from pipeline definitions so they are always JSON-representable.
func configJSON(config map[string]any) string {
	if len(config) == 0 {
		return ""
	}
	data, err := json.Marshal(config)
	if err != nil {
		return ""
	}
	return string(data)
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	var count int
	count, n, err = varint.Int.Unmarshal(bs)
	if err != nil || count == 0 {
		return
	}
	v = make([]float32, count)
	var n1 int
	for i := 0; i < count; i++ {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}
