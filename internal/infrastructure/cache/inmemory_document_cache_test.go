package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)}
}

func TestInMemoryDocumentCache_GetSet(t *testing.T) {
	clock := newClock()
	c := NewInMemoryDocumentCache(time.Hour, WithClock(clock.Now))
	defer c.Close()

	ctx := context.Background()

	t.Run("miss on unknown key", func(t *testing.T) {
		pdf, ok, err := c.Get(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, pdf)
	})

	t.Run("hit after set", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "doc-1", []byte("%PDF-1.3 one")))

		pdf, ok, err := c.Get(ctx, "doc-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("%PDF-1.3 one"), pdf)
	})

	t.Run("stored bytes are copied", func(t *testing.T) {
		buf := []byte("%PDF-1.3 two")
		require.NoError(t, c.Set(ctx, "doc-2", buf))
		buf[0] = 'X'

		pdf, ok, err := c.Get(ctx, "doc-2")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, byte('%'), pdf[0])
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "doc-1", []byte("replaced")))
		pdf, _, err := c.Get(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("replaced"), pdf)
	})

	t.Run("expires after ttl", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "doc-3", []byte("pdf")))
		clock.Advance(time.Hour)

		_, ok, err := c.Get(ctx, "doc-3")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestInMemoryDocumentCache_SetCancelled(t *testing.T) {
	c := NewInMemoryDocumentCache(time.Hour)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Set(ctx, "doc", []byte("pdf"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Size())
}

func TestInMemoryDocumentCache_ZeroTTL(t *testing.T) {
	clock := newClock()
	c := NewInMemoryDocumentCache(0, WithClock(clock.Now))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "doc", []byte("pdf")))
	clock.Advance(365 * 24 * time.Hour)

	_, ok, err := c.Get(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryDocumentCache_Eviction(t *testing.T) {
	clock := newClock()
	c := NewInMemoryDocumentCache(time.Hour, WithClock(clock.Now), WithMaxEntries(2))
	defer c.Close()

	ctx := context.Background()

	t.Run("drops the entry closest to expiry", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "first", []byte("1")))
		clock.Advance(time.Minute)
		require.NoError(t, c.Set(ctx, "second", []byte("2")))
		clock.Advance(time.Minute)
		require.NoError(t, c.Set(ctx, "third", []byte("3")))

		assert.Equal(t, 2, c.Size())
		_, ok, _ := c.Get(ctx, "first")
		assert.False(t, ok)
		_, ok, _ = c.Get(ctx, "third")
		assert.True(t, ok)
	})

	t.Run("overwriting a key does not evict", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "third", []byte("3b")))
		assert.Equal(t, 2, c.Size())
		_, ok, _ := c.Get(ctx, "second")
		assert.True(t, ok)
	})

	t.Run("expired entries go first", func(t *testing.T) {
		clock.Advance(time.Hour - time.Minute)
		// "second" has expired, "third" was refreshed and has not
		require.NoError(t, c.Set(ctx, "fourth", []byte("4")))

		_, ok, _ := c.Get(ctx, "third")
		assert.True(t, ok)
		_, ok, _ = c.Get(ctx, "fourth")
		assert.True(t, ok)
		assert.Equal(t, 2, c.Size())
	})
}

func TestInMemoryDocumentCache_Cleanup(t *testing.T) {
	clock := newClock()
	c := NewInMemoryDocumentCache(time.Minute, WithClock(clock.Now))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "short-lived-1", []byte("a")))
	require.NoError(t, c.Set(ctx, "short-lived-2", []byte("b")))
	clock.Advance(30 * time.Second)
	require.NoError(t, c.Set(ctx, "long-lived", []byte("c")))

	assert.Equal(t, 3, c.Size())

	clock.Advance(45 * time.Second)
	c.cleanup()

	assert.Equal(t, 1, c.Size())
	_, ok, err := c.Get(ctx, "long-lived")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryDocumentCache_ConcurrentAccess(t *testing.T) {
	c := NewInMemoryDocumentCache(time.Hour, WithMaxEntries(16))
	defer c.Close()

	ctx := context.Background()
	const numGoroutines = 50

	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("doc-%d", i%20)
			_ = c.Set(ctx, key, []byte(key))
			if pdf, ok, err := c.Get(ctx, key); err == nil && ok {
				assert.Equal(t, []byte(key), pdf)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), 16)
}

func TestInMemoryDocumentCache_Close(t *testing.T) {
	c := NewInMemoryDocumentCache(time.Hour)

	err := c.Close()
	assert.NoError(t, err)

	// Multiple closes should be safe
	err = c.Close()
	assert.NoError(t, err)
}
