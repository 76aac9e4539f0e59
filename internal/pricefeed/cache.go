package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores the last good snapshot set outside the process.
type Cache interface {
	Load(ctx context.Context) (*Set, error)
	Save(ctx context.Context, s *Set) error
}

// redisKV is the part of redis.Cmdable used by RedisCache.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

const DefaultCacheKey = "cryptoex:pricefeed:last"

// RedisCache keeps the set as JSON under a single key.
type RedisCache struct {
	kv  redisKV
	key string
	ttl time.Duration
}

func NewRedisCache(kv redisKV, key string, ttl time.Duration) *RedisCache {
	if key == "" {
		key = DefaultCacheKey
	}
	return &RedisCache{kv: kv, key: key, ttl: ttl}
}

// NewRedisClient connects to the redis:// URL and pings it.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

// Load returns nil without error when nothing is cached.
func (c *RedisCache) Load(ctx context.Context) (*Set, error) {
	raw, err := c.kv.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Set
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode cached set: %w", err)
	}
	return &s, nil
}

func (c *RedisCache) Save(ctx context.Context, s *Set) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, c.key, raw, c.ttl).Err()
}
