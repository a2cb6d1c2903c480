package steps

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/step"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) step.Context {
	t.Helper()
	return step.NewContext("test-pipeline", "test-user", nil)
}

func contentRecords(contents ...string) []core.Record {
	records := make([]core.Record, len(contents))
	for i, c := range contents {
		records[i] = core.Record{
			core.FieldID:       fmt.Sprintf("r%d", i),
			core.FieldContent:  c,
			core.FieldPosition: i,
		}
	}
	return records
}

func TestDeduplicationRemovesExactDuplicates(t *testing.T) {
	runner := NewDeduplication()
	result := runner.Execute(context.Background(),
		contentRecords("alpha", "beta", "alpha", "gamma", "beta"),
		step.Config{"method": "hash"},
		testContext(t))

	require.True(t, result.Success)
	require.Len(t, result.Output, 3)
	assert.Equal(t, "alpha", result.Output[0].StringField(core.FieldContent))
	assert.Equal(t, "beta", result.Output[1].StringField(core.FieldContent))
	assert.Equal(t, "gamma", result.Output[2].StringField(core.FieldContent))
	assert.Equal(t, 2, result.Metrics.Extra["duplicateCount"])
}

func TestDeduplicationSimilarityMode(t *testing.T) {
	runner := NewDeduplication()
	result := runner.Execute(context.Background(),
		contentRecords(
			"the quick brown fox jumps over the lazy dog",
			"the quick brown fox jumps over the lazy cat",
			"something else entirely unrelated to foxes",
		),
		step.Config{"method": "similarity", "similarityThreshold": 0.5},
		testContext(t))

	require.True(t, result.Success)
	assert.Len(t, result.Output, 2)
}

func TestDeduplicationInvalidConfigHalts(t *testing.T) {
	runner := NewDeduplication()
	input := contentRecords("alpha", "beta")
	result := runner.Execute(context.Background(), input,
		step.Config{"method": "bogus"},
		testContext(t))

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "config validation failed")
	// Failed results carry the original input
	assert.Len(t, result.Output, 2)
}

func TestDeduplicationWrappedInput(t *testing.T) {
	runner := NewDeduplication()
	input := []any{
		map[string]any{
			"items": []any{
				map[string]any{"content": "alpha"},
				map[string]any{"content": "alpha"},
				map[string]any{"content": "beta"},
			},
		},
	}

	result := runner.Execute(context.Background(), input,
		step.Config{"method": "hash"},
		testContext(t))

	require.True(t, result.Success)
	assert.Len(t, result.Output, 2)
}

func TestDeduplicationCapturesSnapshot(t *testing.T) {
	runner := NewDeduplication()
	result := runner.Execute(context.Background(),
		contentRecords("alpha", "alpha"),
		step.Config{"method": "hash"},
		testContext(t))

	require.True(t, result.Success)
	require.NotNil(t, result.Rollback)
	assert.Equal(t, TypeDeduplication, result.Rollback.StepType)
	// Snapshot reflects pre-execution input, not deduplicated output
	assert.Len(t, result.Rollback.Records, 2)
}
