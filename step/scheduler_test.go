package step

import (
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/refinery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []core.Record {
	out := make([]core.Record, n)
	for i := range out {
		out[i] = core.Record{"id": fmt.Sprintf("%d", i)}
	}
	return out
}

func TestScheduler_Process(t *testing.T) {
	t.Run("processes every record in order", func(t *testing.T) {
		var seen []string
		s := NewScheduler(WithChunkSize(10))

		err := s.Process(sequence(25), func(r core.Record) error {
			seen = append(seen, r.StringField("id"))
			return nil
		})

		require.NoError(t, err)
		require.Len(t, seen, 25)
		for i, id := range seen {
			assert.Equal(t, fmt.Sprintf("%d", i), id)
		}
	})

	t.Run("yields between chunks but not after the last", func(t *testing.T) {
		yields := 0
		s := NewScheduler(WithChunkSize(10), WithYield(func() { yields++ }))

		err := s.Process(sequence(25), func(core.Record) error { return nil })

		require.NoError(t, err)
		assert.Equal(t, 2, yields, "three chunks have two boundaries")
	})

	t.Run("exact multiple of chunk size", func(t *testing.T) {
		yields := 0
		s := NewScheduler(WithChunkSize(10), WithYield(func() { yields++ }))

		err := s.Process(sequence(20), func(core.Record) error { return nil })

		require.NoError(t, err)
		assert.Equal(t, 1, yields)
	})

	t.Run("reports rounded percent after each chunk", func(t *testing.T) {
		var reports []int
		s := NewScheduler(WithChunkSize(10), WithProgress(func(p int) { reports = append(reports, p) }))

		err := s.Process(sequence(25), func(core.Record) error { return nil })

		require.NoError(t, err)
		assert.Equal(t, []int{40, 80, 100}, reports)
	})

	t.Run("first error stops processing", func(t *testing.T) {
		boom := errors.New("boom")
		processed := 0
		s := NewScheduler(WithChunkSize(10))

		err := s.Process(sequence(25), func(r core.Record) error {
			processed++
			if processed == 7 {
				return boom
			}
			return nil
		})

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 7, processed)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		called := false
		s := NewScheduler(WithProgress(func(int) { called = true }))

		err := s.Process(nil, func(core.Record) error { return nil })

		require.NoError(t, err)
		assert.False(t, called)
	})
}
