package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"media-store/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// ErrCacheMiss is returned when a key is absent or caching is disabled.
var ErrCacheMiss = errors.New("cache: miss")

// Cache is a thin nil-safe wrapper around Redis. When REDIS_ADDR is not
// configured every operation degrades to a no-op / miss so callers never
// need to branch on whether caching is enabled.
type Cache struct {
	client *redis.Client
}

// NewCache connects to Redis when an address is configured. A missing
// address is not an error: the store runs fine without the read cache.
func NewCache(lc fx.Lifecycle, cfg *config.Config) (*Cache, error) {
	if cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, read cache disabled")
		return &Cache{}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &Cache{client: client}, nil
}

// Get retrieves and unmarshals the cached value into dest.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheMiss
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	return json.Unmarshal(raw, dest)
}

// Set marshals value and stores it with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	return c.client.Set(ctx, key, payload, ttl).Err()
}

// Delete removes a key. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}
