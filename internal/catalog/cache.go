package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix  = "catalog:track:"
	defaultCacheTTL = 10 * time.Minute
)

// RedisCache memoizes catalog lookups in Redis. Redis failures never fail a
// lookup: they fall through to the wrapped Lookup.
type RedisCache struct {
	rdb    *redis.Client
	next   Lookup
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache wraps next with a Redis-backed cache.
func NewRedisCache(rdb *redis.Client, next Lookup, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{rdb: rdb, next: next, ttl: ttl, logger: logger}
}

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

// Lookup returns the cached track or resolves and caches it.
func (c *RedisCache) Lookup(ctx context.Context, id string) (Track, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		if t, ok := decodeCached(raw); ok {
			return t, nil
		}
		c.logger.Warn("discarding corrupt cache entry", zap.String("track_id", id))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", zap.String("track_id", id), zap.Error(err))
	}

	t, err := c.next.Lookup(ctx, id)
	if err != nil {
		return Track{}, err
	}

	if data, err := encodeCached(t); err == nil {
		if err := c.rdb.Set(ctx, cacheKey(id), data, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", zap.String("track_id", id), zap.Error(err))
		}
	}
	return t, nil
}

func encodeCached(t Track) ([]byte, error) {
	return json.Marshal(t)
}

func decodeCached(raw []byte) (Track, bool) {
	var t Track
	if err := json.Unmarshal(raw, &t); err != nil || t.ID == "" {
		return Track{}, false
	}
	return t, true
}
