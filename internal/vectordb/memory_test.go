package vectordb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMemoryQueryRanksByScore(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(zaptest.NewLogger(t))

	err := idx.Upsert(ctx, "ns", []Item{
		{ID: "far", Vector: []float32{0, 1}},
		{ID: "exact", Vector: []float32{1, 0}},
		{ID: "close", Vector: []float32{1, 1}},
	})
	require.NoError(t, err)

	matches, err := idx.Query(ctx, "ns", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "exact", matches[0].ID)
	assert.Equal(t, "close", matches[1].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestMemoryReupsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(zaptest.NewLogger(t))

	items := []Item{
		{ID: "add", Vector: []float32{1, 0}, Metadata: Metadata{FilePath: "math.js", Kind: "function"}},
		{ID: "Stack", Vector: []float32{0, 1}, Metadata: Metadata{FilePath: "stack.js", Kind: "class"}},
	}
	require.NoError(t, idx.Upsert(ctx, "ns", items))
	first, err := idx.Query(ctx, "ns", []float32{1, 0}, 5)
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx, "ns", items))
	second, err := idx.Query(ctx, "ns", []float32{1, 0}, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	n, err := idx.Count(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(zaptest.NewLogger(t))

	require.NoError(t, idx.Upsert(ctx, "ns", []Item{
		{ID: "f", Vector: []float32{0, 1}, Metadata: Metadata{FilePath: "old.js"}},
	}))
	require.NoError(t, idx.Upsert(ctx, "ns", []Item{
		{ID: "f", Vector: []float32{1, 0}, Metadata: Metadata{FilePath: "new.js"}},
	}))

	matches, err := idx.Query(ctx, "ns", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, "new.js", matches[0].Metadata.FilePath)
}

func TestMemoryNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(zaptest.NewLogger(t))

	require.NoError(t, idx.Upsert(ctx, "a", []Item{{ID: "f", Vector: []float32{1, 0}}}))
	require.NoError(t, idx.Upsert(ctx, "b", []Item{{ID: "f", Vector: []float32{1, 0}}}))

	require.NoError(t, idx.DeleteNamespace(ctx, "a"))

	gone, err := idx.Query(ctx, "a", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := idx.Query(ctx, "b", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestMemoryQueryUnknownNamespace(t *testing.T) {
	idx := NewMemory(zaptest.NewLogger(t))

	matches, err := idx.Query(context.Background(), "never-written", []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryDeleteAbsentNamespace(t *testing.T) {
	idx := NewMemory(zaptest.NewLogger(t))
	assert.NoError(t, idx.DeleteNamespace(context.Background(), "missing"))
}

func TestMemoryCount(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(zaptest.NewLogger(t))

	n, err := idx.Count(ctx, "ns")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, idx.Upsert(ctx, "ns", []Item{
		{ID: "a", Vector: []float32{1}},
		{ID: "b", Vector: []float32{0}},
	}))
	require.NoError(t, idx.Upsert(ctx, "ns", []Item{
		{ID: "a", Vector: []float32{1}},
	}))

	n, err = idx.Count(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryDeleteIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(zaptest.NewLogger(t))

	require.NoError(t, idx.Upsert(ctx, "a", []Item{{ID: "x", Vector: []float32{1}}}))
	require.NoError(t, idx.Upsert(ctx, "b", []Item{{ID: "y", Vector: []float32{1}}}))
	require.NoError(t, idx.DeleteIndex(ctx))

	for _, ns := range []string{"a", "b"} {
		matches, err := idx.Query(ctx, ns, []float32{1}, 5)
		require.NoError(t, err)
		assert.Empty(t, matches)
	}
}
