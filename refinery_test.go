package refinery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/refinery/ai/mock"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/pipeline"
	"github.com/poiesic/refinery/steps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("create new engine", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		engine, err := Open(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, engine)
		defer engine.Close()

		// Verify components are initialized
		assert.NotNil(t, engine.SegmentRepository())
		assert.NotNil(t, engine.SnapshotRepository())
		assert.NotNil(t, engine.Registry())
		assert.NotNil(t, engine.Provider())
		assert.NotNil(t, engine.backend)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create an engine at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		engine, err := Open(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, engine)
	})

	t.Run("in-memory storage", func(t *testing.T) {
		engine, err := Open("", WithInMemoryStorage(), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, engine)
		assert.NoError(t, engine.Close())
	})
}

func TestEngine_Close(t *testing.T) {
	engine, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, engine)

	err = engine.Close()
	assert.NoError(t, err)
}

func TestEngine_FactoryMethods(t *testing.T) {
	engine, err := Open("", WithInMemoryStorage(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer engine.Close()

	t.Run("can create pipeline executor", func(t *testing.T) {
		executor, err := engine.NewPipelineExecutor()
		require.NoError(t, err)
		require.NotNil(t, executor)
		executor.Release()
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := engine.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})
}

func TestEngine_RunPipeline(t *testing.T) {
	engine, err := Open("", WithInMemoryStorage(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer engine.Close()

	executor, err := engine.NewPipelineExecutor()
	require.NoError(t, err)
	defer executor.Release()

	def := &pipeline.Definition{
		Name: "cleanup-and-embed",
		Steps: []pipeline.StepDefinition{
			{Type: steps.TypeDeduplication},
			{Type: steps.TypeEmbed, Config: map[string]any{
				"persist":   true,
				"datasetId": "ds-1",
			}},
		},
	}

	input := []core.Record{
		{core.FieldContent: "alpha", core.FieldPosition: 0},
		{core.FieldContent: "alpha", core.FieldPosition: 1},
		{core.FieldContent: "beta", core.FieldPosition: 2},
	}

	result, err := executor.Run(context.Background(), def, input, "test-user")
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Len(t, result.Output, 2)

	stored, err := engine.SegmentRepository().FindByDatasetID(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
