package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the in-memory cache when no limit is configured
const DefaultMaxEntries = 256

// entry is a cached document with its expiration
type entry struct {
	pdf       []byte
	expiresAt time.Time
}

// InMemoryDocumentCache implements DocumentCache using an in-memory map.
// This is suitable for single-instance deployments and testing
type InMemoryDocumentCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	stopChan   chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// InMemoryOption configures an InMemoryDocumentCache
type InMemoryOption func(*InMemoryDocumentCache)

// WithMaxEntries caps the number of cached documents
func WithMaxEntries(n int) InMemoryOption {
	return func(c *InMemoryDocumentCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithClock overrides the time source used for expiry
func WithClock(now func() time.Time) InMemoryOption {
	return func(c *InMemoryDocumentCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewInMemoryDocumentCache creates a new in-memory document cache.
// A zero ttl keeps entries until they are evicted.
// It starts a background goroutine to clean up expired entries
func NewInMemoryDocumentCache(ttl time.Duration, opts ...InMemoryOption) *InMemoryDocumentCache {
	c := &InMemoryDocumentCache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		stopChan:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns the cached document for key
func (c *InMemoryDocumentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists || c.expired(e) {
		return nil, false, nil
	}
	return e.pdf, true, nil
}

// Set stores a copy of pdf under key
func (c *InMemoryDocumentCache) Set(ctx context.Context, key string, pdf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]byte, len(pdf))
	copy(stored, pdf)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}

	e := entry{pdf: stored}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[key] = e
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (c *InMemoryDocumentCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryDocumentCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemoryDocumentCache) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

// evictLocked drops expired entries, then the one closest to expiry if the
// cache is still full. Caller holds the write lock.
func (c *InMemoryDocumentCache) evictLocked() {
	c.removeExpiredLocked()
	if len(c.entries) < c.maxEntries {
		return
	}

	var victim string
	var oldest time.Time
	for key, e := range c.entries {
		if victim == "" || e.expiresAt.Before(oldest) {
			victim, oldest = key, e.expiresAt
		}
	}
	delete(c.entries, victim)
}

func (c *InMemoryDocumentCache) removeExpiredLocked() {
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
		}
	}
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryDocumentCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryDocumentCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeExpiredLocked()
}

// Ensure InMemoryDocumentCache implements DocumentCache
var _ DocumentCache = (*InMemoryDocumentCache)(nil)
