package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/covariant-labs/guardian/internal/domain"
)

// cacheTTL bounds staleness if the reference dataset is redeployed under a
// running cache. Lookups are deterministic for a given dataset, so caching is
// otherwise transparent.
const cacheTTL = 15 * time.Minute

// CachedStore is a read-through Redis cache in front of another Store. Cache
// errors are logged and treated as misses; the cache never changes lookup
// semantics.
type CachedStore struct {
	inner  Store
	client redis.Cmdable

	// metricsCallback receives "cache_hit" / "cache_miss" events. Optional.
	metricsCallback func(event string)
}

// NewCachedStore wraps inner with a Redis read-through cache.
func NewCachedStore(inner Store, client redis.Cmdable) *CachedStore {
	return &CachedStore{inner: inner, client: client}
}

// SetMetricsCallback registers a callback for cache hit/miss events.
func (c *CachedStore) SetMetricsCallback(callback func(event string)) {
	c.metricsCallback = callback
}

func (c *CachedStore) emit(event string) {
	if c.metricsCallback != nil {
		c.metricsCallback(event)
	}
}

// cached fetches key from Redis, falling back to fill on miss or cache error
// and storing the filled value best-effort.
func cached[T any](ctx context.Context, c *CachedStore, key string, fill func() (T, error)) (T, error) {
	var zero T

	payload, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var value T
		if unmarshalErr := json.Unmarshal([]byte(payload), &value); unmarshalErr == nil {
			c.emit("cache_hit")
			return value, nil
		}
		log.Warn().Str("key", key).Msg("corrupt knowledge cache entry, refilling")
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("key", key).Msg("knowledge cache read failed, serving uncached")
	}
	c.emit("cache_miss")

	value, err := fill()
	if err != nil {
		return zero, err
	}

	if encoded, marshalErr := json.Marshal(value); marshalErr == nil {
		if setErr := c.client.Set(ctx, key, encoded, cacheTTL).Err(); setErr != nil {
			log.Warn().Err(setErr).Str("key", key).Msg("knowledge cache write failed")
		}
	}
	return value, nil
}

// LookupBracketPerformance implements Store.
func (c *CachedStore) LookupBracketPerformance(ctx context.Context, bracket domain.CoMovementBracket) ([]domain.BracketExcerpt, error) {
	key := fmt.Sprintf("guardian:knowledge:bracket:%s", bracket)
	return cached(ctx, c, key, func() ([]domain.BracketExcerpt, error) {
		return c.inner.LookupBracketPerformance(ctx, bracket)
	})
}

// LookupCategoryPerformance implements Store.
func (c *CachedStore) LookupCategoryPerformance(ctx context.Context, category string) ([]domain.CategoryExcerpt, error) {
	key := fmt.Sprintf("guardian:knowledge:category:%s", category)
	return cached(ctx, c, key, func() ([]domain.CategoryExcerpt, error) {
		return c.inner.LookupCategoryPerformance(ctx, category)
	})
}

// LookupOpportunityCost implements Store.
func (c *CachedStore) LookupOpportunityCost(ctx context.Context, category string) (string, error) {
	key := fmt.Sprintf("guardian:knowledge:opportunity:%s", category)
	return cached(ctx, c, key, func() (string, error) {
		return c.inner.LookupOpportunityCost(ctx, category)
	})
}

// LookupDualRisk implements Store.
func (c *CachedStore) LookupDualRisk(ctx context.Context, bracket domain.CoMovementBracket, category string) (*DualRiskRecord, error) {
	key := fmt.Sprintf("guardian:knowledge:dualrisk:%s:%s", bracket, category)
	return cached(ctx, c, key, func() (*DualRiskRecord, error) {
		return c.inner.LookupDualRisk(ctx, bracket, category)
	})
}
