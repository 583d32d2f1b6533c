package cache

import (
	"testing"
	"time"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDocumentCacheFactory_CreateCache(t *testing.T) {
	t.Run("redis disabled uses memory", func(t *testing.T) {
		f := NewDocumentCacheFactory(config.RedisConfig{CacheTTL: time.Minute})
		c, err := f.CreateCache()
		require.NoError(t, err)
		defer c.Close()

		mem, ok := c.(*InMemoryDocumentCache)
		require.True(t, ok)
		assert.Equal(t, time.Minute, mem.ttl)
	})

	t.Run("unreachable redis falls back with a warning", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		f := NewDocumentCacheFactory(unreachableRedis(), WithLogger(zap.New(core)))

		c, err := f.CreateCache()
		require.NoError(t, err)
		defer c.Close()

		assert.IsType(t, &InMemoryDocumentCache{}, c)
		require.Equal(t, 1, logs.Len())
		assert.Contains(t, logs.All()[0].Message, "falling back to in-memory")
	})

	t.Run("fallback disabled returns error", func(t *testing.T) {
		f := NewDocumentCacheFactory(unreachableRedis(), WithInMemoryFallback(false))

		c, err := f.CreateCache()
		require.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "Redis document cache unavailable")
	})
}
