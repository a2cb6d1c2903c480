package storage

import (
	"context"

	"github.com/poiesic/refinery/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// SegmentRepository provides operations for persisted content segments.
type SegmentRepository interface {
	Repository

	// AddSegments adds one or more segments to storage.
	// For segments with ID=0, generates new IDs from sequence.
	// Sets InsertedAt timestamp if not already set.
	// Returns the segments with generated IDs and timestamps populated.
	AddSegments(ctx context.Context, segments ...*core.Segment) ([]*core.Segment, error)

	// UpdateSegments updates existing segments.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any segment doesn't exist.
	UpdateSegments(ctx context.Context, segments ...*core.Segment) ([]*core.Segment, error)

	// DeleteSegments removes segments by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any segment doesn't exist.
	DeleteSegments(ctx context.Context, ids ...core.ID) error

	// GetSegment retrieves a single segment by ID.
	// Returns ErrNotFound if the segment doesn't exist.
	GetSegment(ctx context.Context, id core.ID) (*core.Segment, error)

	// GetSegments retrieves multiple segments by their IDs.
	// Returns only the segments that exist (no error for missing segments).
	GetSegments(ctx context.Context, ids ...core.ID) ([]*core.Segment, error)

	// FindByDatasetID retrieves all segments belonging to a dataset,
	// ordered by position.
	FindByDatasetID(ctx context.Context, datasetID string) ([]*core.Segment, error)

	// FindByDocumentID retrieves all segments belonging to a document,
	// ordered by position.
	FindByDocumentID(ctx context.Context, documentID string) ([]*core.Segment, error)

	// FindSimilar finds segments similar to the given vector.
	// Returns segments with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)
}

// SnapshotRepository provides operations for step rollback snapshots.
type SnapshotRepository interface {
	Repository

	// SaveSnapshot persists a rollback snapshot keyed by its execution ID.
	// An existing snapshot for the same execution is overwritten.
	SaveSnapshot(ctx context.Context, snapshot *core.RollbackSnapshot) error

	// GetSnapshot retrieves the snapshot for an execution.
	// Returns ErrNotFound if no snapshot exists.
	GetSnapshot(ctx context.Context, executionID string) (*core.RollbackSnapshot, error)

	// DeleteSnapshot removes the snapshot for an execution.
	// Deleting a missing snapshot is not an error.
	DeleteSnapshot(ctx context.Context, executionID string) error

	// ListSnapshots retrieves all snapshots created by a step type,
	// ordered by creation time.
	ListSnapshots(ctx context.Context, stepType string) ([]*core.RollbackSnapshot, error)
}
