package envelope

import (
	"testing"

	"github.com/poiesic/refinery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FlatSequence(t *testing.T) {
	t.Run("two or more records pass through", func(t *testing.T) {
		input := []any{
			map[string]any{"id": "1", "content": "a"},
			map[string]any{"id": "2", "content": "b"},
		}

		env := Normalize(input, "content")

		assert.Equal(t, KindFlat, env.Kind)
		require.Len(t, env.Records, 2)
		assert.Equal(t, "a", env.Records[0].StringField("content"))
		assert.Equal(t, "content", env.ContentField)
	})

	t.Run("single record without array properties passes through", func(t *testing.T) {
		input := []any{map[string]any{"id": "1", "content": "a"}}

		env := Normalize(input, "content")

		assert.Equal(t, KindFlat, env.Kind)
		require.Len(t, env.Records, 1)
		assert.Equal(t, "a", env.Records[0].StringField("content"))
	})

	t.Run("empty input yields empty sequence", func(t *testing.T) {
		env := Normalize([]any{}, "content")

		assert.Equal(t, KindFlat, env.Kind)
		assert.Empty(t, env.Records)
	})

	t.Run("nil input yields empty sequence", func(t *testing.T) {
		env := Normalize(nil, "content")

		assert.Equal(t, KindFlat, env.Kind)
		assert.Empty(t, env.Records)
	})
}

func TestNormalize_Wrapped(t *testing.T) {
	t.Run("single wrapper object is unwrapped", func(t *testing.T) {
		input := []any{
			map[string]any{
				"results": []any{
					map[string]any{"id": "1", "content": "a"},
					map[string]any{"id": "2", "content": "b"},
				},
			},
		}

		env := Normalize(input, "results.content")

		assert.Equal(t, KindWrapped, env.Kind)
		assert.Equal(t, "results", env.WrapperKey)
		require.Len(t, env.Records, 2)
		assert.Equal(t, "content", env.ContentField, "consumed wrapper key must be stripped from the path")
	})

	t.Run("path not mentioning the wrapper key is untouched", func(t *testing.T) {
		input := []any{
			map[string]any{
				"items": []any{map[string]any{"id": "1", "text": "a"}},
			},
		}

		env := Normalize(input, "text")

		assert.Equal(t, KindWrapped, env.Kind)
		assert.Equal(t, "text", env.ContentField)
	})

	t.Run("bare wrapper object is unwrapped directly", func(t *testing.T) {
		input := map[string]any{
			"items": []any{
				map[string]any{"id": "1", "content": "a"},
				map[string]any{"id": "2", "content": "b"},
			},
		}

		env := Normalize(input, "items.content")

		assert.Equal(t, KindWrapped, env.Kind)
		require.Len(t, env.Records, 2)
		assert.Equal(t, "content", env.ContentField)
	})

	t.Run("array of primitives does not qualify as a wrapper", func(t *testing.T) {
		input := []any{
			map[string]any{"id": "1", "tags": []any{"x", "y"}, "content": "a"},
		}

		env := Normalize(input, "content")

		assert.Equal(t, KindFlat, env.Kind)
		require.Len(t, env.Records, 1)
	})
}

func TestNormalize_DoublyWrapped(t *testing.T) {
	input := []any{
		map[string]any{
			"items": []any{
				map[string]any{
					"data": []any{
						map[string]any{"id": "1", "text": "a"},
						map[string]any{"id": "2", "text": "a"},
					},
				},
			},
		},
	}

	env := Normalize(input, "data.text")

	assert.Equal(t, KindDoublyWrapped, env.Kind)
	assert.Equal(t, "items", env.WrapperKey)
	assert.Equal(t, "data", env.InnerKey)
	require.Len(t, env.Records, 2)
	assert.Equal(t, "text", env.ContentField, "path must track both unwrapping levels")
	assert.Equal(t, "a", env.Records[0].StringField("text"))
}

func TestNormalize_Ambiguous(t *testing.T) {
	input := []any{
		map[string]any{
			"zebras": []any{map[string]any{"id": "z"}},
			"apples": []any{map[string]any{"id": "a"}},
		},
	}

	env := Normalize(input, "")

	assert.Equal(t, KindAmbiguous, env.Kind)
	assert.Equal(t, "apples", env.WrapperKey, "sorted key order makes resolution deterministic")
	require.Len(t, env.Warnings, 1)
	assert.Contains(t, env.Warnings[0], "ambiguous envelope")
}

func TestNormalize_Scalars(t *testing.T) {
	t.Run("bare record becomes one-record sequence", func(t *testing.T) {
		env := Normalize(map[string]any{"id": "1", "content": "a"}, "content")

		assert.Equal(t, KindScalar, env.Kind)
		require.Len(t, env.Records, 1)
		assert.Equal(t, "a", env.Records[0].StringField("content"))
	})

	t.Run("bare primitive is preserved under value", func(t *testing.T) {
		env := Normalize("just text", "content")

		assert.Equal(t, KindScalar, env.Kind)
		require.Len(t, env.Records, 1)
		assert.Equal(t, "just text", env.Records[0].StringField("value"))
		assert.Equal(t, "", env.Records[0].StringField("content"))
	})

	t.Run("non-object sequence elements survive coercion", func(t *testing.T) {
		env := Normalize([]any{"x", 42, nil}, "content")

		assert.Equal(t, KindFlat, env.Kind)
		require.Len(t, env.Records, 3)
		for _, r := range env.Records {
			assert.Equal(t, "", r.StringField("content"))
		}
	})
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	inner := []any{map[string]any{"id": "1", "content": "a"}}
	wrapper := map[string]any{"items": inner}
	input := []any{wrapper}

	env := Normalize(input, "items.content")
	env.Records[0]["content"] = "changed"

	// Records alias the input maps on purpose (normalization copies nothing),
	// but the envelope structure itself must be intact.
	assert.Len(t, wrapper, 1)
	assert.Len(t, input, 1)
}

func TestExtractor_Extract(t *testing.T) {
	ex := NewExtractor(nil)

	t.Run("direct lookup", func(t *testing.T) {
		r := core.Record{"content": "hello"}
		assert.Equal(t, "hello", ex.Extract(r, "content"))
	})

	t.Run("missing field resolves to empty string", func(t *testing.T) {
		r := core.Record{"content": "hello"}
		assert.Equal(t, "", ex.Extract(r, "body"))
	})

	t.Run("nil value resolves to empty string", func(t *testing.T) {
		r := core.Record{"content": nil}
		assert.Equal(t, "", ex.Extract(r, "content"))
	})

	t.Run("non-string value is stringified", func(t *testing.T) {
		r := core.Record{"count": 7}
		assert.Equal(t, "7", ex.Extract(r, "count"))
	})

	t.Run("dot path traversal", func(t *testing.T) {
		r := core.Record{"data": map[string]any{"post_message": "hi"}}
		assert.Equal(t, "hi", ex.Extract(r, "data.post_message"))
	})

	t.Run("absent wrapper segment is dropped", func(t *testing.T) {
		r := core.Record{"post_message": "hi"}
		assert.Equal(t, "hi", ex.Extract(r, "data.post_message"))
	})

	t.Run("chained wrapper segments are dropped", func(t *testing.T) {
		r := core.Record{"text": "hi"}
		assert.Equal(t, "hi", ex.Extract(r, "items.data.text"))
	})

	t.Run("stuck traversal falls back to final segment at top level", func(t *testing.T) {
		r := core.Record{"meta": "not an object", "text": "hi"}
		assert.Equal(t, "hi", ex.Extract(r, "meta.nested.text"))
	})

	t.Run("unresolvable path gives empty string", func(t *testing.T) {
		r := core.Record{"content": "hello"}
		assert.Equal(t, "", ex.Extract(r, "meta.nested.missing"))
	})

	t.Run("nil record does not panic", func(t *testing.T) {
		assert.Equal(t, "", ex.Extract(nil, "content"))
	})

	t.Run("empty path gives empty string", func(t *testing.T) {
		r := core.Record{"content": "hello"}
		assert.Equal(t, "", ex.Extract(r, ""))
	})
}
