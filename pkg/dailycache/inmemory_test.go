package dailycache_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachastral/astro-daily/pkg/dailycache"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	key := dailycache.KeyFor("2026-08-30", "", "horoscope")

	t.Run("Miss returns ErrMiss", func(t *testing.T) {
		c := dailycache.NewInMemoryCache[string]()

		_, err := c.FetchFromCache(ctx, key)

		require.Error(t, err)
		assert.ErrorIs(t, err, dailycache.ErrMiss)
	})

	t.Run("Write then fetch round-trips", func(t *testing.T) {
		c := dailycache.NewInMemoryCache[string]()

		require.NoError(t, c.WriteToCache(ctx, key, "today's content"))
		value, err := c.FetchFromCache(ctx, key)

		require.NoError(t, err)
		assert.Equal(t, "today's content", value)
	})

	t.Run("Write overwrites unconditionally", func(t *testing.T) {
		c := dailycache.NewInMemoryCache[string]()

		require.NoError(t, c.WriteToCache(ctx, key, "first"))
		require.NoError(t, c.WriteToCache(ctx, key, "second"))

		value, err := c.FetchFromCache(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", value)
	})

	t.Run("Concurrent same-key writes are last-write-wins safe", func(t *testing.T) {
		c := dailycache.NewInMemoryCache[int]()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_ = c.WriteToCache(ctx, key, n)
				_, _ = c.FetchFromCache(ctx, key)
			}(i)
		}
		wg.Wait()

		value, err := c.FetchFromCache(ctx, key)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, value, 0)
		assert.Less(t, value, 50)
	})
}
