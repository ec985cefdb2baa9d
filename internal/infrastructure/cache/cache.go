package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"aucwatch/pkg/contextx"
	"aucwatch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Cache is a read-through cache on top of redis. Redis being down never
// fails a request: the loader result is returned and the miss is logged.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// GetOrSet returns the cached value under key, calling loader and
// storing its result on a miss.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, loader func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached T
		if err := jsoniter.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// Stale format, fall through to the loader.
		logger(ctx).Warn("cache entry unmarshal failed", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		logger(ctx).Warn("cache get failed", slog.String("key", key), logx.Error(err))
	}

	loaded, err := loader(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := jsoniter.Marshal(loaded)
	if err != nil {
		logger(ctx).Warn("cache entry marshal failed", slog.String("key", key), logx.Error(err))
		return loaded, nil
	}

	if err := c.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		logger(ctx).Warn("cache set failed", slog.String("key", key), logx.Error(err))
	}

	return loaded, nil
}

// Del drops keys. A lingering entry only delays freshness until its
// TTL, so callers are expected to log the error rather than fail.
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return c.client.Del(ctx, keys...).Err()
}
