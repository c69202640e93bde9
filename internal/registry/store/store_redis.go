package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"irdesk/internal/registry/models"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "irdesk_registry_cache_lookups_total",
	Help: "Registry cache lookups by result (hit, miss, error)",
}, []string{"result"})

// holderKeyPrefix namespaces cached lookups by normalized holder id.
const holderKeyPrefix = "registry:holder:"

// Source is the registry contract the cache decorates.
type Source interface {
	Lookup(ctx context.Context, holderID string) ([]models.Holder, error)
	BulkUpsert(ctx context.Context, holders []models.Holder) (int, error)
}

// RedisCache is a read-through cache in front of a registry Source. Negative
// results are cached too, so unknown ids do not hammer the source.
type RedisCache struct {
	client *redis.Client
	source Source
	ttl    time.Duration
	logger *slog.Logger
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithCacheLogger sets the logger used for degraded-cache warnings.
func WithCacheLogger(logger *slog.Logger) RedisCacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

// NewRedisCache wraps source with a Redis cache whose entries live for ttl.
func NewRedisCache(client *redis.Client, source Source, ttl time.Duration, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		client: client,
		source: source,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Lookup serves from Redis when possible. A Redis failure degrades to the source
// rather than failing the verification.
func (c *RedisCache) Lookup(ctx context.Context, holderID string) ([]models.Holder, error) {
	key := holderKeyPrefix + models.Holder{ID: holderID}.NormalizedID()

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var holders []models.Holder
		if jsonErr := json.Unmarshal(raw, &holders); jsonErr == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return holders, nil
		}
		cacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		cacheLookups.WithLabelValues("miss").Inc()
	default:
		cacheLookups.WithLabelValues("error").Inc()
		c.logger.WarnContext(ctx, "registry cache read failed", "key", key, "error", err)
	}

	holders, err := c.source.Lookup(ctx, holderID)
	if err != nil {
		return nil, err
	}
	if holders == nil {
		holders = []models.Holder{}
	}
	if payload, err := json.Marshal(holders); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "registry cache write failed", "key", key, "error", err)
		}
	}
	return holders, nil
}

// BulkUpsert writes through to the source and evicts the affected keys.
func (c *RedisCache) BulkUpsert(ctx context.Context, holders []models.Holder) (int, error) {
	n, err := c.source.BulkUpsert(ctx, holders)
	if err != nil {
		return 0, err
	}
	if len(holders) == 0 {
		return n, nil
	}
	pipe := c.client.Pipeline()
	for _, h := range holders {
		pipe.Del(ctx, holderKeyPrefix+h.NormalizedID())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return n, fmt.Errorf("evict registry cache: %w", err)
	}
	return n, nil
}
