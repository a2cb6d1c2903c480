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

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/storage"
)

// SnapshotRepository implements storage.SnapshotRepository for BadgerDB.
type SnapshotRepository struct {
	backend *Backend
}

var _ storage.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(backend *Backend) *SnapshotRepository {
	return &SnapshotRepository{
		backend: backend,
	}
}

// Close is a no-op; the repository holds no resources of its own.
func (r *SnapshotRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *SnapshotRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveSnapshot persists a rollback snapshot keyed by its execution ID.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snapshot *core.RollbackSnapshot) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSnapshotKey(snapshot.ExecutionId)
		value := storage.MarshalSnapshot(snapshot)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		// Step-type index entry points back at the execution
		stepKey := makeSnapshotStepKey(snapshot.StepType, snapshot.ExecutionId)
		if err := tx.Set(stepKey, []byte(snapshot.ExecutionId)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSnapshot retrieves the snapshot for an execution.
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, executionID string) (*core.RollbackSnapshot, error) {
	var snapshot *core.RollbackSnapshot
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSnapshotKey(executionID)
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			snapshot, unmarshalErr = storage.UnmarshalSnapshot(val)
			return unmarshalErr
		})
	}, false)

	return snapshot, err
}

// DeleteSnapshot removes the snapshot for an execution.
// Deleting a missing snapshot is not an error.
func (r *SnapshotRepository) DeleteSnapshot(ctx context.Context, executionID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSnapshotKey(executionID)

		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		// Resolve the step type so the index entry can be cleaned up
		var snapshot *core.RollbackSnapshot
		if err := item.Value(func(val []byte) error {
			var unmarshalErr error
			snapshot, unmarshalErr = storage.UnmarshalSnapshot(val)
			return unmarshalErr
		}); err != nil {
			return err
		}

		if snapshot != nil {
			stepKey := makeSnapshotStepKey(snapshot.StepType, executionID)
			if err := tx.Delete(stepKey); err != nil {
				return err
			}
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListSnapshots retrieves all snapshots created by a step type,
// ordered by creation time.
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, stepType string) ([]*core.RollbackSnapshot, error) {
	var results []*core.RollbackSnapshot
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialSnapshotStepKey(stepType)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var executionID string
			if err := iter.Item().Value(func(val []byte) error {
				executionID = string(val)
				return nil
			}); err != nil {
				return err
			}

			item, err := tx.Get(makeSnapshotKey(executionID))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}

			var snapshot *core.RollbackSnapshot
			if err := item.Value(func(val []byte) error {
				var unmarshalErr error
				snapshot, unmarshalErr = storage.UnmarshalSnapshot(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
			if snapshot != nil {
				results = append(results, snapshot)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.RollbackSnapshot) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return results, nil
}
