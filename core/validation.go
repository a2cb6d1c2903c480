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
	"fmt"
	"time"
)

// ValidateSnapshot validates a RollbackSnapshot according to domain rules.
//
// Validation rules:
//   - StepType must not be empty
//   - ExecutionId must not be empty
//   - CreatedAt must not be in the future
//
// NOT validated:
//   - Records (an empty input legitimately snapshots to zero records)
//   - Config (steps own their config shape)
func ValidateSnapshot(snapshot *RollbackSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot is nil", ErrInvalidSnapshot)
	}

	if snapshot.StepType == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, ErrEmptyStepType)
	}

	if snapshot.ExecutionId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, ErrEmptyExecutionID)
	}

	if !IsValidTimestamp(snapshot.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp reports whether a timestamp is not in the future.
// A small tolerance absorbs clock skew between writers.
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now().Add(5 * time.Second))
}
