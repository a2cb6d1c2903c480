package steps

import (
	"context"
	"testing"

	"github.com/poiesic/refinery/condition"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/step"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(t *testing.T) *condition.Evaluator {
	t.Helper()
	evaluator, err := condition.NewEvaluator()
	require.NoError(t, err)
	return evaluator
}

func TestFilterKeepsMatchingRecords(t *testing.T) {
	runner := NewFilter(newTestEvaluator(t))

	records := []core.Record{
		{core.FieldContent: "a", core.FieldStatus: "new"},
		{core.FieldContent: "b", core.FieldStatus: "processed"},
		{core.FieldContent: "c", core.FieldStatus: "new"},
	}

	result := runner.Execute(context.Background(), records,
		step.Config{"condition": `segment.status == "new"`},
		testContext(t))

	require.True(t, result.Success)
	require.Len(t, result.Output, 2)
	assert.Equal(t, "a", result.Output[0].StringField(core.FieldContent))
	assert.Equal(t, "c", result.Output[1].StringField(core.FieldContent))
	assert.Equal(t, 1, result.Metrics.Extra["filteredCount"])
}

func TestFilterMissingConditionHalts(t *testing.T) {
	runner := NewFilter(newTestEvaluator(t))

	result := runner.Execute(context.Background(),
		[]core.Record{{core.FieldContent: "a"}},
		step.Config{},
		testContext(t))

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "condition is required")
}

func TestFilterBadExpressionHalts(t *testing.T) {
	runner := NewFilter(newTestEvaluator(t))

	result := runner.Execute(context.Background(),
		[]core.Record{{core.FieldContent: "a"}},
		step.Config{"condition": `segment.status ==`},
		testContext(t))

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "invalid condition")
}

func TestFilterEvaluationErrorDropsRecordWithWarning(t *testing.T) {
	runner := NewFilter(newTestEvaluator(t))

	// Second record lacks the field the condition reads
	records := []core.Record{
		{core.FieldContent: "a", "score": int64(5)},
		{core.FieldContent: "b"},
	}

	result := runner.Execute(context.Background(), records,
		step.Config{"condition": `segment.score > 3`},
		testContext(t))

	require.True(t, result.Success)
	assert.Len(t, result.Output, 1)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "record 1 dropped")
}
