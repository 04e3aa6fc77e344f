package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Fcevalerio/skyhigh-insights/config"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "metrics:"

// RedisCache memoizes serialized metric results for a short TTL. Keys are
// metric names with an optional filter suffix; payloads are opaque bytes.
type RedisCache struct {
	client     *redis.Client
	resultsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, resultsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		resultsTTL: resultsTTL,
	}
}

// Get returns the cached payload for key, or nil on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, payload []byte) error {
	return c.client.Set(ctx, keyPrefix+key, payload, c.resultsTTL).Err()
}

// DeletePrefix removes every cached entry whose key starts with prefix and
// returns the number of entries dropped. Filtered variants of a metric share
// the metric name as prefix, so invalidating "load_factor" also drops
// "load_factor:route=7".
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+prefix+"*", 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			deleted += int(n)
			if err != nil {
				return deleted, err
			}
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
