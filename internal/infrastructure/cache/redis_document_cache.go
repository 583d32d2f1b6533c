package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces cached documents in a shared Redis
const DefaultKeyPrefix = "invoicer:pdf:"

// RedisDocumentCache implements DocumentCache using Redis
// This is suitable for distributed deployments where multiple instances
// should share rendered documents
type RedisDocumentCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisDocumentCache connects to Redis and checks the connection
func NewRedisDocumentCache(cfg config.RedisConfig) (*RedisDocumentCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDocumentCacheWithClient(client, cfg.KeyPrefix, cfg.CacheTTL), nil
}

// NewRedisDocumentCacheWithClient creates a cache with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisDocumentCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisDocumentCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisDocumentCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached document for key. A missing key is not an error.
func (c *RedisDocumentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	pdf, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached document: %w", err)
	}
	return pdf, true, nil
}

// Set stores pdf under key with the configured TTL
func (c *RedisDocumentCache) Set(ctx context.Context, key string, pdf []byte) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, pdf, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache document: %w", err)
	}
	return nil
}

// Ping checks the connection, for health reporting
func (c *RedisDocumentCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisDocumentCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisDocumentCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisDocumentCache implements DocumentCache
var _ DocumentCache = (*RedisDocumentCache)(nil)
