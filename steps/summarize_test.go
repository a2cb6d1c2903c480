package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/ai/mock"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/step"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeProducesOneRecord(t *testing.T) {
	chat := mock.NewMockChatClient()
	chat.ChatCompletionFunc = func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "first segment")
		assert.Contains(t, req.Messages[1].Content, "second segment")
		return &ai.ChatResponse{
			Choices: []ai.ChatChoice{{Content: "a short summary", FinishReason: "stop"}},
			Usage:   ai.ChatUsage{TotalTokens: 42},
		}, nil
	}

	runner := NewSummarize(chat)
	result := runner.Execute(context.Background(),
		contentRecords("first segment", "second segment"),
		step.Config{},
		testContext(t))

	require.True(t, result.Success)
	require.Len(t, result.Output, 1)
	assert.Equal(t, "a short summary", result.Output[0].StringField(core.FieldContent))
	assert.Equal(t, "summarized", result.Output[0].StringField(core.FieldStatus))
	assert.Equal(t, 2, result.Output[0].IntField("sourceCount"))
	assert.Equal(t, 42, result.Metrics.Extra["totalTokens"])
	assert.Equal(t, 1, chat.CallCount())
}

func TestSummarizeSkipsEmptyBatch(t *testing.T) {
	chat := mock.NewMockChatClient()
	runner := NewSummarize(chat)

	result := runner.Execute(context.Background(), []core.Record{}, step.Config{}, testContext(t))

	require.True(t, result.Success)
	assert.Empty(t, result.Output)
	assert.Equal(t, 0, chat.CallCount())
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[len(result.Warnings)-1], "skipped")
}

func TestSummarizeChatFailure(t *testing.T) {
	chat := mock.NewMockChatClient()
	chat.ChatCompletionFunc = func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
		return nil, errors.New("model unavailable")
	}

	runner := NewSummarize(chat)
	input := contentRecords("alpha")
	result := runner.Execute(context.Background(), input, step.Config{}, testContext(t))

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "summarization failed")
	// Failed results carry the original input
	require.Len(t, result.Output, 1)
	assert.Equal(t, "alpha", result.Output[0].StringField(core.FieldContent))
}

func TestSummarizeNoContentAnywhere(t *testing.T) {
	chat := mock.NewMockChatClient()
	runner := NewSummarize(chat)

	result := runner.Execute(context.Background(),
		[]core.Record{{"other": "field"}},
		step.Config{},
		testContext(t))

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "no content to summarize")
}
