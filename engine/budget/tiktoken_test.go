package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCounter(t *testing.T, name string) *TiktokenCounter {
	t.Helper()
	seeded := &TiktokenCounter{encodingName: name}
	counterCache.Store(name, seeded)
	t.Cleanup(func() { counterCache.Delete(name) })
	return seeded
}

func TestModelEncodingName(t *testing.T) {
	t.Run("Should report the model's own encoding", func(t *testing.T) {
		assert.Equal(t, "o200k_base", modelEncodingName("gpt-4o"))
	})
	t.Run("Should match model family prefixes", func(t *testing.T) {
		assert.Equal(t, "cl100k_base", modelEncodingName("gpt-3.5-turbo-0125"))
	})
	t.Run("Should fall back to the default for unknown models", func(t *testing.T) {
		assert.Equal(t, defaultEncoding, modelEncodingName("house-model-7b"))
	})
}

func TestCachedTiktokenCounter(t *testing.T) {
	t.Run("Should reuse the cached counter for a known encoding", func(t *testing.T) {
		seeded := seedCounter(t, "cl100k_base")
		got, err := CachedTiktokenCounter("cl100k_base")
		require.NoError(t, err)
		assert.Same(t, seeded, got)
	})

	t.Run("Should treat an empty name as the default encoding", func(t *testing.T) {
		seeded := seedCounter(t, defaultEncoding)
		got, err := CachedTiktokenCounter("")
		require.NoError(t, err)
		assert.Same(t, seeded, got)
	})

	t.Run("Should keep separate counters per encoding", func(t *testing.T) {
		first := seedCounter(t, "p50k_base")
		second := seedCounter(t, "o200k_base")
		gotFirst, err := CachedTiktokenCounter("p50k_base")
		require.NoError(t, err)
		gotSecond, err := CachedTiktokenCounter("o200k_base")
		require.NoError(t, err)
		assert.Same(t, first, gotFirst)
		assert.Same(t, second, gotSecond)
		assert.NotSame(t, gotFirst, gotSecond)
	})
}
