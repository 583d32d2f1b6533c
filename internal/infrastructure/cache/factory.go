package cache

import (
	"context"
	"fmt"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DocumentCache stores rendered PDFs by content key
type DocumentCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, pdf []byte) error
	Close() error
}

// DocumentCacheFactory creates document caches based on configuration
type DocumentCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DocumentCacheFactoryOption is a functional option for configuring the factory
type DocumentCacheFactoryOption func(*DocumentCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DocumentCacheFactoryOption {
	return func(f *DocumentCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) DocumentCacheFactoryOption {
	return func(f *DocumentCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDocumentCacheFactory creates a new factory
func NewDocumentCacheFactory(cfg config.RedisConfig, opts ...DocumentCacheFactoryOption) *DocumentCacheFactory {
	f := &DocumentCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed document cache
func (f *DocumentCacheFactory) CreateRedisCache() (DocumentCache, error) {
	c, err := NewRedisDocumentCache(f.redisConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis document cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates an in-memory document cache.
// Instances do not share it, so each one renders its own copy.
func (f *DocumentCacheFactory) CreateInMemoryCache() DocumentCache {
	return NewInMemoryDocumentCache(f.redisConfig.CacheTTL)
}

// CreateCache creates the cache the configuration asks for. With Redis
// disabled it returns the in-memory cache; with Redis enabled but
// unreachable it falls back to memory unless fallback is turned off.
func (f *DocumentCacheFactory) CreateCache() (DocumentCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("using in-memory document cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis document cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis document cache unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory document cache",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
