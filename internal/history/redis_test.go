package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// This test requires a running Redis instance. To run it, set:
// - CORTEX_REDIS_ADDR=localhost:6379

func TestRedisListIntegration(t *testing.T) {
	addr := os.Getenv("CORTEX_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping test because CORTEX_REDIS_ADDR is not set")
	}

	ctx := context.Background()
	store := NewRedis(RedisConfig{Addr: addr, Timeout: 5 * time.Second}, zaptest.NewLogger(t))
	require.NoError(t, store.Ping(ctx))
	defer store.Close()

	key := "cortex-test-" + uuid.NewString()
	defer store.Remove(ctx, key)

	t.Run("ListOps", func(t *testing.T) {
		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, store.PushHead(ctx, key, "first"))
		require.NoError(t, store.PushHead(ctx, key, "second"))

		exists, err = store.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists)

		n, err := store.Length(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		all, err := store.RangeAll(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []string{"second", "first"}, all)

		tail, err := store.PopTail(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "first", tail)
	})

	t.Run("RemoveValue", func(t *testing.T) {
		require.NoError(t, store.PushHead(ctx, key, "dup"))
		require.NoError(t, store.PushHead(ctx, key, "dup"))

		removed, err := store.RemoveValue(ctx, key, "dup", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
	})

	t.Run("WindowOverRedis", func(t *testing.T) {
		w := NewWindow(store, DefaultMaxEntries, zaptest.NewLogger(t))
		session := "cortex-test-" + uuid.NewString()
		defer store.Remove(ctx, session)

		require.NoError(t, w.EnsureExists(ctx, session))
		require.NoError(t, w.AppendTurn(ctx, session, "User: hi"))

		entries, err := w.ReadAll(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, []string{"User: hi"}, entries)
	})

	t.Run("PopTailEmptyList", func(t *testing.T) {
		val, err := store.PopTail(ctx, "cortex-test-missing-"+uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, val)
	})
}
