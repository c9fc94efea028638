package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

// ViewKeyPrefix namespaces cached view payloads in Redis.
const ViewKeyPrefix = "osms:view:"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// ViewKey builds the cache key of a view path. scope separates variants of
// the same path, such as a caller or a filter set.
func ViewKey(path, scope string) string {
	key := ViewKeyPrefix + path
	if scope != "" {
		key += "#" + scope
	}
	return key
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// InvalidatePaths drops every cached variant of the given view paths.
// Failures are logged; the mutation that triggered them already succeeded.
func (s *CacheService) InvalidatePaths(ctx context.Context, paths ...string) {
	if !s.Enabled() {
		return
	}
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		pattern := ViewKeyPrefix + path + "*"
		deleted, err := s.repo.DeleteByPattern(ctx, pattern)
		if err != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		s.metrics.RecordInvalidation(deleted)
		s.logger.Debug("views invalidated", zap.String("path", path), zap.Int("keys", deleted))
	}
}

// readThrough serves key from cache or computes, stores and returns it.
// Cache read errors fall back to load.
func readThrough[T any](ctx context.Context, cache *CacheService, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	if cache.Enabled() {
		if hit, err := cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, true, nil
		}
	}
	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if cache.Enabled() {
		_ = cache.Set(ctx, key, value, ttl)
	}
	return value, false, nil
}
