package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"floreria/internal/models"
	"floreria/internal/utils"
	"floreria/pkg/cache"
	"floreria/pkg/logger"
	"floreria/pkg/maps"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CacheStore is the subset of *cache.RedisCache the services rely on.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Ping(ctx context.Context) error
}

type CacheService interface {
	// Delivery quotes
	CacheQuote(ctx context.Context, quote *models.DeliveryQuote, expiration time.Duration) error
	GetCachedQuote(ctx context.Context, quoteID primitive.ObjectID) (*models.DeliveryQuote, error)
	InvalidateQuote(ctx context.Context, quoteID primitive.ObjectID) error

	// Geocoding results keyed by normalized address
	CacheGeocode(ctx context.Context, address string, result *maps.GeocodeResult, expiration time.Duration) error
	GetCachedGeocode(ctx context.Context, address string) (*maps.GeocodeResult, error)

	// Rate limiting
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)

	Ping(ctx context.Context) error
}

type RateLimitResult struct {
	Allowed    bool          `json:"allowed"`
	Count      int64         `json:"count"`
	Remaining  int64         `json:"remaining"`
	ResetTime  time.Time     `json:"reset_time"`
	RetryAfter time.Duration `json:"retry_after"`
}

type cacheService struct {
	store     CacheStore
	logger    *logger.Logger
	keyPrefix string
}

func NewCacheService(store CacheStore, logger *logger.Logger, keyPrefix string) CacheService {
	return &cacheService{
		store:     store,
		logger:    logger,
		keyPrefix: keyPrefix,
	}
}

func (s *cacheService) CacheQuote(ctx context.Context, quote *models.DeliveryQuote, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = utils.DefaultQuoteTTL
	}

	key := s.buildKey(utils.CacheQuotePrefix + quote.ID.Hex())
	if err := s.store.Set(ctx, key, quote, expiration); err != nil {
		return fmt.Errorf("failed to cache quote %s: %w", quote.ID.Hex(), err)
	}

	s.logger.WithField("cache_key", key).
		WithField("expiration", expiration.String()).
		Debug("Cache set")
	return nil
}

func (s *cacheService) GetCachedQuote(ctx context.Context, quoteID primitive.ObjectID) (*models.DeliveryQuote, error) {
	var quote models.DeliveryQuote
	if err := s.get(ctx, utils.CacheQuotePrefix+quoteID.Hex(), &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (s *cacheService) InvalidateQuote(ctx context.Context, quoteID primitive.ObjectID) error {
	key := s.buildKey(utils.CacheQuotePrefix + quoteID.Hex())
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete cache key %s: %w", key, err)
	}
	return nil
}

func (s *cacheService) CacheGeocode(ctx context.Context, address string, result *maps.GeocodeResult, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = utils.GeocodeCacheTTL
	}

	key := s.buildKey(utils.CacheGeocodePrefix + utils.NormalizeAddress(address))
	if err := s.store.Set(ctx, key, result, expiration); err != nil {
		return fmt.Errorf("failed to cache geocode result: %w", err)
	}
	return nil
}

func (s *cacheService) GetCachedGeocode(ctx context.Context, address string) (*maps.GeocodeResult, error) {
	var result maps.GeocodeResult
	if err := s.get(ctx, utils.CacheGeocodePrefix+utils.NormalizeAddress(address), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *cacheService) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	rateLimitKey := s.buildKey(fmt.Sprintf("rate_limit:%s", key))

	count, ttl, err := s.store.IncrementWindow(ctx, rateLimitKey, window)
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if ttl <= 0 {
		ttl = window
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	result := &RateLimitResult{
		Allowed:   count <= limit,
		Count:     count,
		Remaining: remaining,
		ResetTime: time.Now().Add(ttl),
	}
	if !result.Allowed {
		result.RetryAfter = ttl
	}
	return result, nil
}

func (s *cacheService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// get returns cache.ErrCacheMiss untouched so callers can tell a miss from
// a broken connection.
func (s *cacheService) get(ctx context.Context, key string, dest interface{}) error {
	fullKey := s.buildKey(key)

	err := s.store.Get(ctx, fullKey, dest)
	if errors.Is(err, cache.ErrCacheMiss) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to get cache key %s: %w", key, err)
	}

	s.logger.WithField("cache_key", fullKey).Debug("Cache hit")
	return nil
}

func (s *cacheService) buildKey(key string) string {
	if s.keyPrefix != "" {
		return fmt.Sprintf("%s:%s", s.keyPrefix, key)
	}
	return key
}
