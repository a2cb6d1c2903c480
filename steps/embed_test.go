package steps

import (
	"context"
	"math"
	"testing"

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/ai/mock"
	"github.com/poiesic/refinery/step"
	"github.com/poiesic/refinery/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedAttachesUnitVectors(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{3, 4} // magnitude 5, normalizes to 0.6, 0.8
		}
		return vectors, nil
	}

	runner := NewEmbed(embedder, nil)
	result := runner.Execute(context.Background(),
		contentRecords("alpha", "beta"),
		step.Config{},
		testContext(t))

	require.True(t, result.Success)
	require.Len(t, result.Output, 2)

	vec, ok := result.Output[0]["vector"].([]float32)
	require.True(t, ok)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestEmbedDoesNotMutateInput(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	runner := NewEmbed(embedder, nil)

	input := contentRecords("alpha")
	result := runner.Execute(context.Background(), input, step.Config{}, testContext(t))

	require.True(t, result.Success)
	_, hasVector := input[0]["vector"]
	assert.False(t, hasVector)
}

func TestEmbedPersistRequiresDataset(t *testing.T) {
	runner := NewEmbed(mock.NewMockEmbedder(), nil)

	result := runner.Execute(context.Background(),
		contentRecords("alpha"),
		step.Config{"persist": true},
		testContext(t))

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "config validation failed")
}

func TestEmbedPersistAndRollback(t *testing.T) {
	segRepo, snapRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { snapRepo.Close(); segRepo.Close(); backend.Close() }()

	runner := NewEmbed(mock.NewMockEmbedder(), segRepo)
	ctx := context.Background()
	sc := testContext(t)

	result := runner.Execute(ctx,
		contentRecords("alpha", "beta"),
		step.Config{"persist": true, "datasetId": "ds-1", "documentId": "doc-1"},
		sc)
	require.True(t, result.Success)

	stored, err := segRepo.FindByDatasetID(ctx, "ds-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.NotEmpty(t, stored[0].Vector)

	// Rollback removes what the invocation persisted
	rb := runner.Rollback(ctx, result.Rollback, sc)
	require.True(t, rb.Success, rb.Error)

	stored, err = segRepo.FindByDatasetID(ctx, "ds-1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestEmbedEmbedderFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, assert.AnError
	}

	runner := NewEmbed(embedder, nil)
	input := contentRecords("alpha")
	result := runner.Execute(context.Background(), input, step.Config{}, testContext(t))

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "embedding failed")
	assert.Len(t, result.Output, 1)
}

var _ ai.Embedder = (*mock.MockEmbedder)(nil)
