package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/storage"
)

// SegmentRepository implements storage.SegmentRepository for BadgerDB.
type SegmentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SegmentRepository = (*SegmentRepository)(nil)

// NewSegmentRepository creates a new SegmentRepository.
func NewSegmentRepository(backend *Backend) (*SegmentRepository, error) {
	idSeq, err := backend.GetSequence(segmentIDSeq)
	if err != nil {
		return nil, err
	}

	return &SegmentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *SegmentRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *SegmentRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *SegmentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddSegments adds one or more segments to storage.
func (r *SegmentRepository) AddSegments(ctx context.Context, segments ...*core.Segment) ([]*core.Segment, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, segment := range segments {
			if segment.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				segment.Id = core.ID(nextID)
			}

			segment.InsertedAt = time.Now().UTC()
			segment.UpdatedAt = segment.InsertedAt

			// Store primary record
			key := makeSegmentKey(segment.Id)
			value := storage.MarshalSegment(segment)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update dataset and document indices
			if err := r.updateIndices(tx, segment); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return segments, err
}

// UpdateSegments updates existing segments.
func (r *SegmentRepository) UpdateSegments(ctx context.Context, segments ...*core.Segment) ([]*core.Segment, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, segment := range segments {
			key := makeSegmentKey(segment.Id)

			// Read old segment to detect index changes
			old, err := r.readSegment(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			segment.UpdatedAt = time.Now().UTC()

			value := storage.MarshalSegment(segment)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Rebuild indices if the segment moved
			if old.DatasetID != segment.DatasetID ||
				old.DocumentID != segment.DocumentID ||
				old.Position != segment.Position {
				if err := r.deleteIndices(tx, old); err != nil {
					return err
				}
				if err := r.updateIndices(tx, segment); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return segments, err
}

// DeleteSegments removes segments by their IDs.
func (r *SegmentRepository) DeleteSegments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeSegmentKey(id)

			// Read segment to get index keys for cleanup
			segment, err := r.readSegment(tx, key)
			if err != nil {
				return err
			}
			if segment == nil {
				return storage.ErrNotFound
			}

			if err := r.deleteIndices(tx, segment); err != nil {
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetSegment retrieves a single segment by ID.
func (r *SegmentRepository) GetSegment(ctx context.Context, id core.ID) (*core.Segment, error) {
	var result *core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSegmentKey(id)
		var err error
		result, err = r.readSegment(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetSegments retrieves multiple segments by their IDs.
func (r *SegmentRepository) GetSegments(ctx context.Context, ids ...core.ID) ([]*core.Segment, error) {
	var result []*core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeSegmentKey(id)
			segment, err := r.readSegment(tx, key)
			if err != nil {
				return err
			}
			if segment != nil {
				result = append(result, segment)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindByDatasetID retrieves all segments belonging to a dataset, ordered by position.
func (r *SegmentRepository) FindByDatasetID(ctx context.Context, datasetID string) ([]*core.Segment, error) {
	return r.findByIndex(makePartialDatasetKey(datasetID))
}

// FindByDocumentID retrieves all segments belonging to a document, ordered by position.
func (r *SegmentRepository) FindByDocumentID(ctx context.Context, documentID string) ([]*core.Segment, error) {
	return r.findByIndex(makePartialDocumentKey(documentID))
}

// findByIndex walks an index prefix and resolves each entry to its segment.
func (r *SegmentRepository) findByIndex(prefix []byte) ([]*core.Segment, error) {
	var results []*core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			// Read the ID from the index
			var segmentID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				segmentID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full segment
			segment, err := r.readSegment(tx, makeSegmentKey(segmentID))
			if err != nil {
				return err
			}
			if segment != nil {
				results = append(results, segment)
			}
		}
		return nil
	}, false)

	return results, err
}

// Helper methods

// readSegment reads a segment from the transaction.
func (r *SegmentRepository) readSegment(tx *badger.Txn, key []byte) (*core.Segment, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var segment *core.Segment
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		segment, unmarshalErr = storage.UnmarshalSegment(val)
		return unmarshalErr
	})
	return segment, err
}

// updateIndices adds dataset and document index entries for a segment.
func (r *SegmentRepository) updateIndices(tx *badger.Txn, segment *core.Segment) error {
	value := storage.MarshalID(segment.Id)
	if segment.DatasetID != "" {
		key := makeDatasetKey(segment.DatasetID, segment.Position, segment.Id)
		if err := tx.Set(key, value); err != nil {
			return err
		}
	}
	if segment.DocumentID != "" {
		key := makeDocumentKey(segment.DocumentID, segment.Position, segment.Id)
		if err := tx.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// deleteIndices removes dataset and document index entries for a segment.
func (r *SegmentRepository) deleteIndices(tx *badger.Txn, segment *core.Segment) error {
	if segment.DatasetID != "" {
		key := makeDatasetKey(segment.DatasetID, segment.Position, segment.Id)
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	if segment.DocumentID != "" {
		key := makeDocumentKey(segment.DocumentID, segment.Position, segment.Id)
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
