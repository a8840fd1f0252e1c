package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/ieraasyl/SavorViews/internal/testutil"
	"github.com/ieraasyl/SavorViews/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		defer cleanup()
		s := testutil.NewTestTabStorage(t, mr, "tab-a")

		_, ok, err := s.GetItem(ctx, "userId")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.SetItem(ctx, "userId", "42"))
		v, ok, err := s.GetItem(ctx, "userId")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "42", v)

		assert.True(t, mr.Exists(cache.TabKey("tab-a", "userId")))
		assert.Equal(t, time.Hour, mr.TTL(cache.TabKey("tab-a", "userId")))

		require.NoError(t, s.RemoveItem(ctx, "userId"))
		_, ok, err = s.GetItem(ctx, "userId")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.RemoveItem(ctx, "userId"))
	})

	t.Run("tabs are isolated", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		defer cleanup()
		a := testutil.NewTestTabStorage(t, mr, "tab-a")
		b := testutil.NewTestTabStorage(t, mr, "tab-b")

		require.NoError(t, a.SetItem(ctx, "userEmail", "alice@example.com"))
		_, ok, err := b.GetItem(ctx, "userEmail")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("same tab ID survives a new client", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		defer cleanup()

		require.NoError(t, testutil.NewTestTabStorage(t, mr, "tab-a").SetItem(ctx, "userId", "42"))
		v, ok, err := testutil.NewTestTabStorage(t, mr, "tab-a").GetItem(ctx, "userId")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "42", v)
	})

	t.Run("expired items are gone", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		defer cleanup()
		s := testutil.NewTestTabStorage(t, mr, "tab-a")

		require.NoError(t, s.SetItem(ctx, "userId", "42"))
		mr.FastForward(2 * time.Hour)

		_, ok, err := s.GetItem(ctx, "userId")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("purge drops only this tab", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		defer cleanup()
		a := testutil.NewTestTabStorage(t, mr, "tab-a")
		b := testutil.NewTestTabStorage(t, mr, "tab-b")

		require.NoError(t, a.SetItem(ctx, "userId", "42"))
		require.NoError(t, a.SetItem(ctx, "userEmail", "alice@example.com"))
		require.NoError(t, b.SetItem(ctx, "userId", "7"))

		require.NoError(t, a.Purge(ctx))

		assert.False(t, mr.Exists(cache.TabKey("tab-a", "userId")))
		assert.False(t, mr.Exists(cache.TabKey("tab-a", "userEmail")))
		assert.True(t, mr.Exists(cache.TabKey("tab-b", "userId")))
	})

	t.Run("ping fails when redis is down", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		defer cleanup()
		s := testutil.NewTestTabStorage(t, mr, "tab-a")

		require.NoError(t, s.Ping(ctx))
		mr.Close()
		assert.Error(t, s.Ping(ctx))
	})
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "tab:t1:userId", cache.TabKey("t1", "userId"))
	assert.Equal(t, "tab:t1:*", cache.TabPattern("t1"))
}
