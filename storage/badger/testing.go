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

package badger

import "github.com/poiesic/refinery/storage"

// NewMemoryRepositories creates in-memory segment and snapshot repositories for testing.
// Returns segmentRepo, snapshotRepo, backend, and error.
// Caller must close both repos and the backend when done.
func NewMemoryRepositories() (storage.SegmentRepository, storage.SnapshotRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	segmentRepo, err := NewSegmentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	snapshotRepo := NewSnapshotRepository(backend)

	return segmentRepo, snapshotRepo, backend, nil
}
