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

package step

import (
	"math"
	"runtime"

	"github.com/poiesic/refinery/core"
)

// DefaultChunkSize is how many records a scheduler processes between yields.
const DefaultChunkSize = 100

// Scheduler drives a record sequence through a step body in fixed-size
// chunks, yielding control back to the host between chunks. The yield exists
// purely to keep a single-threaded host responsive on very large inputs, not
// for correctness: chunk boundaries are the only suspension points and
// records are never reordered, so first-occurrence-wins accumulators stay
// sound.
type Scheduler struct {
	chunkSize  int
	yield      func()
	onProgress func(percent int)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithChunkSize overrides the chunk size. Values below 1 are ignored.
func WithChunkSize(size int) SchedulerOption {
	return func(s *Scheduler) {
		if size >= 1 {
			s.chunkSize = size
		}
	}
}

// WithYield sets the control-return point invoked between chunks.
// Default is runtime.Gosched.
func WithYield(yield func()) SchedulerOption {
	return func(s *Scheduler) {
		if yield != nil {
			s.yield = yield
		}
	}
}

// WithProgress sets a callback receiving rounded percent progress after each
// chunk.
func WithProgress(fn func(percent int)) SchedulerOption {
	return func(s *Scheduler) {
		s.onProgress = fn
	}
}

// NewScheduler creates a scheduler with chunk size 100 and a Gosched yield.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		chunkSize: DefaultChunkSize,
		yield:     runtime.Gosched,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs fn over every record in order, one chunk at a time. Control
// yields after each chunk except the last. The first error stops processing
// and is returned as-is.
func (s *Scheduler) Process(records []core.Record, fn func(record core.Record) error) error {
	total := len(records)

	for offset := 0; offset < total; offset += s.chunkSize {
		end := offset + s.chunkSize
		if end > total {
			end = total
		}

		for _, record := range records[offset:end] {
			if err := fn(record); err != nil {
				return err
			}
		}

		if s.onProgress != nil {
			s.onProgress(percent(end, total))
		}
		if end < total {
			s.yield()
		}
	}

	return nil
}

func percent(processed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(processed) / float64(total) * 100))
}
