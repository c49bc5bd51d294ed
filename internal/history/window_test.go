package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

func newTestWindow(t *testing.T) *Window {
	return NewWindow(NewMemoryList(), DefaultMaxEntries, zaptest.NewLogger(t))
}

func TestEnsureExistsSeedsPlaceholder(t *testing.T) {
	ctx := context.Background()
	w := newTestWindow(t)

	require.NoError(t, w.EnsureExists(ctx, "sess"))

	entries, err := w.ReadAll(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, IsPlaceholder(entries[0]))

	// A second call must not stack another placeholder.
	require.NoError(t, w.EnsureExists(ctx, "sess"))
	entries, err = w.ReadAll(ctx, "sess")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFirstAppendRemovesPlaceholder(t *testing.T) {
	ctx := context.Background()
	w := newTestWindow(t)

	require.NoError(t, w.EnsureExists(ctx, "sess"))
	require.NoError(t, w.AppendTurn(ctx, "sess", "User: hello"))

	entries, err := w.ReadAll(ctx, "sess")
	require.NoError(t, err)
	require.Equal(t, []string{"User: hello"}, entries)

	require.NoError(t, w.AppendTurn(ctx, "sess", "Assistant: hi"))
	entries, err = w.ReadAll(ctx, "sess")
	require.NoError(t, err)
	require.Equal(t, []string{"Assistant: hi", "User: hello"}, entries)
	for _, e := range entries {
		assert.False(t, IsPlaceholder(e))
	}
}

func TestReadAllMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	w := newTestWindow(t)

	require.NoError(t, w.EnsureExists(ctx, "sess"))
	for _, turn := range []string{"a", "b", "c"} {
		require.NoError(t, w.AppendTurn(ctx, "sess", turn))
	}

	entries, err := w.ReadAll(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, entries)
}

func TestTrimDropsTwoOldest(t *testing.T) {
	ctx := context.Background()
	w := newTestWindow(t)

	require.NoError(t, w.EnsureExists(ctx, "sess"))
	for i := 1; i <= 6; i++ {
		require.NoError(t, w.AppendTurn(ctx, "sess", fmt.Sprintf("t%d", i)))
	}

	entries, err := w.ReadAll(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, []string{"t6", "t5", "t4", "t3"}, entries)
}

func TestSevenAppendsStayBounded(t *testing.T) {
	ctx := context.Background()
	w := newTestWindow(t)

	require.NoError(t, w.EnsureExists(ctx, "sess"))
	for i := 1; i <= 7; i++ {
		require.NoError(t, w.AppendTurn(ctx, "sess", fmt.Sprintf("t%d", i)))
	}

	entries, err := w.ReadAll(ctx, "sess")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), DefaultMaxEntries)
	assert.Equal(t, 5, len(entries))
	assert.Equal(t, "t7", entries[0])
}

func TestClearReturnsSessionToAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryList()
	w := NewWindow(store, DefaultMaxEntries, zaptest.NewLogger(t))

	require.NoError(t, w.EnsureExists(ctx, "sess"))
	require.NoError(t, w.AppendTurn(ctx, "sess", "User: hi"))
	require.NoError(t, w.Clear(ctx, "sess"))

	exists, err := store.Exists(ctx, "sess")
	require.NoError(t, err)
	assert.False(t, exists)

	// Cleared sessions can be seeded again from scratch.
	require.NoError(t, w.EnsureExists(ctx, "sess"))
	entries, err := w.ReadAll(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, IsPlaceholder(entries[0]))
}

func TestConcurrentAppendsStayBounded(t *testing.T) {
	ctx := context.Background()
	w := newTestWindow(t)
	require.NoError(t, w.EnsureExists(ctx, "sess"))

	var g errgroup.Group
	for i := 0; i < 3; i++ {
		i := i
		g.Go(func() error {
			for j := 0; j < 4; j++ {
				if err := w.AppendTurn(ctx, "sess", fmt.Sprintf("g%d-%d", i, j)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	entries, err := w.ReadAll(ctx, "sess")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), DefaultMaxEntries)
	assert.Equal(t, 4, len(entries))
}
