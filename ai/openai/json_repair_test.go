package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid JSON unchanged",
			input: `{"entities": [{"name": "paris", "type": "place"}]}`,
			want:  `{"entities": [{"name": "paris", "type": "place"}]}`,
		},
		{
			name:  "missing opening quote after comma",
			input: `{"name": "paris", type": "place"}`,
			want:  `{"name": "paris", "type": "place"}`,
		},
		{
			name:  "missing opening quote after brace",
			input: `{name": "paris"}`,
			want:  `{"name": "paris"}`,
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repairJSON(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepairJSONProducesParseable(t *testing.T) {
	broken := `{"entities": [{name": "marie curie", type": "person", "confidence": 0.9}], "relations": []}`

	var result graphAnalysis
	err := json.Unmarshal([]byte(repairJSON(broken)), &result)
	require.NoError(t, err)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "marie curie", result.Entities[0].Name)
	assert.Equal(t, "person", result.Entities[0].Type)
}

func TestScrubString(t *testing.T) {
	assert.Equal(t, "hello world", scrubString("  hello, world!  "))
	assert.Equal(t, "its fine", scrubString("it's fine."))
	assert.Equal(t, "", scrubString("...   "))
}
