package badger

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/refinery/core"
)

func TestOpenBackendInMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	if err != nil {
		t.Fatalf("Failed to open in-memory backend: %v", err)
	}

	if backend.IsClosed() {
		t.Fatal("Backend should be open")
	}

	if err := backend.Close(); err != nil {
		t.Fatalf("Failed to close backend: %v", err)
	}

	if !backend.IsClosed() {
		t.Fatal("Backend should be closed")
	}
}

func TestOpenBackendOnDisk(t *testing.T) {
	dir := t.TempDir()

	backend, err := OpenBackend(dir, false)
	if err != nil {
		t.Fatalf("Failed to open backend: %v", err)
	}

	// Write through a repository and reopen to verify persistence
	repo, err := NewSegmentRepository(backend)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}

	ctx := context.Background()
	added, err := repo.AddSegments(ctx, &core.Segment{DatasetID: "ds", Content: "persisted"})
	if err != nil {
		t.Fatalf("Failed to add segment: %v", err)
	}

	repo.Close()
	backend.Close()

	backend, err = OpenBackend(dir, false)
	if err != nil {
		t.Fatalf("Failed to reopen backend: %v", err)
	}
	defer backend.Close()

	repo, err = NewSegmentRepository(backend)
	if err != nil {
		t.Fatalf("Failed to recreate repository: %v", err)
	}
	defer repo.Close()

	segment, err := repo.GetSegment(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get segment after reopen: %v", err)
	}
	if segment.Content != "persisted" {
		t.Fatalf("Expected 'persisted', got '%s'", segment.Content)
	}
}

func TestWithTxDiscardsOnError(t *testing.T) {
	backend, err := OpenBackend("", true)
	if err != nil {
		t.Fatalf("Failed to open backend: %v", err)
	}
	defer backend.Close()

	key := []byte("test-key")

	err = backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(key, []byte("value")); err != nil {
			return err
		}
		// Returning an error without committing discards the write
		return context.Canceled
	}, true)
	if err != context.Canceled {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	err = backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		return err
	}, false)
	if err != badger.ErrKeyNotFound {
		t.Fatalf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestGetSequence(t *testing.T) {
	backend, err := OpenBackend("", true)
	if err != nil {
		t.Fatalf("Failed to open backend: %v", err)
	}
	defer backend.Close()

	seq, err := backend.GetSequence("test-seq")
	if err != nil {
		t.Fatalf("Failed to get sequence: %v", err)
	}
	defer seq.Release()

	first, err := seq.Next()
	if err != nil {
		t.Fatalf("Failed to get next value: %v", err)
	}
	second, err := seq.Next()
	if err != nil {
		t.Fatalf("Failed to get next value: %v", err)
	}

	if second <= first {
		t.Fatalf("Sequence not increasing: %d then %d", first, second)
	}
}
