package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pairloop/pairloop/internal/config"
	"github.com/redis/go-redis/v9"
)

// SummaryTTL bounds staleness of a cached intimacy summary. The cache
// is also deleted on every award/revoke, so the TTL only matters for
// the UTC-midnight rollover of the "today earned" figure.
const SummaryTTL = 60 * time.Second

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

// Get returns "" on a cache miss rather than an error.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForSummary generates the Redis key for a couple's cached summary.
func (c *RedisCache) KeyForSummary(coupleID string) string {
	return fmt.Sprintf("intimacy:summary:%s", coupleID)
}
