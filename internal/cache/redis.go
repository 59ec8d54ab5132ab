package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SurabhiV1999/ChemBot/internal/config"
)

// probeInterval throttles re-enable pings after the cache fails open.
const probeInterval = 30 * time.Second

// Redis caches answers in redis with TTL expiry. Any backend failure
// disables the cache for the process (fail-open); a later ping probe may
// re-enable it.
type Redis struct {
	client *redis.Client
	ttl    time.Duration

	enabled atomic.Bool

	mu        sync.Mutex
	lastProbe time.Time

	hits   atomic.Int64
	misses atomic.Int64
	stores atomic.Int64
	errs   atomic.Int64
}

// NewRedis creates a redis-backed cache. The connection is established
// lazily on first use.
func NewRedis(cfg config.Config) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	c := &Redis{
		client: client,
		ttl:    cfg.CacheTTL,
	}
	c.enabled.Store(true)
	slog.Info("created redis cache client", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	return c
}

// Get looks up a cached answer. Backend errors count as misses.
func (c *Redis) Get(ctx context.Context, question, namespace string, params map[string]any, dest any) (bool, error) {
	if !c.usable(ctx) {
		return false, nil
	}

	key := Key(question, namespace, params)
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.misses.Add(1)
		return false, nil
	}
	if err != nil {
		c.failOpen("get", err)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.errs.Add(1)
		slog.Warn("cache payload corrupt, treating as miss", "key", key, "error", err)
		return false, nil
	}

	c.hits.Add(1)
	return true, nil
}

// Put stores an answer with TTL and records the key in the namespace index
// so later invalidation is exact.
func (c *Redis) Put(ctx context.Context, question, namespace string, params map[string]any, value any) error {
	if !c.usable(ctx) {
		return nil
	}

	key := Key(question, namespace, params)
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, nsIndexKey(namespace), key)
	pipe.Expire(ctx, nsIndexKey(namespace), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.failOpen("put", err)
		return nil
	}

	c.stores.Add(1)
	return nil
}

// InvalidateNamespace deletes every cached answer for one content namespace.
func (c *Redis) InvalidateNamespace(ctx context.Context, namespace string) (int, error) {
	if !c.usable(ctx) {
		return 0, nil
	}

	index := nsIndexKey(namespace)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		c.failOpen("invalidate", err)
		return 0, nil
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.failOpen("invalidate", err)
			return 0, nil
		}
	}
	if err := c.client.Del(ctx, index).Err(); err != nil {
		c.failOpen("invalidate", err)
	}

	slog.Info("invalidated cached answers", "namespace", namespace, "count", len(keys))
	return len(keys), nil
}

// ClearAll removes every answer entry by scanning the key prefix.
func (c *Redis) ClearAll(ctx context.Context) error {
	if !c.usable(ctx) {
		return nil
	}

	deleted := 0
	for _, pattern := range []string{KeyPrefix + "*", nsPrefix + "*"} {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				c.failOpen("clear", err)
				return nil
			}
			deleted++
		}
		if err := iter.Err(); err != nil {
			c.failOpen("clear", err)
			return nil
		}
	}

	slog.Warn("cleared all cached answers", "deleted", deleted)
	return nil
}

// Enabled reports whether the cache is currently usable.
func (c *Redis) Enabled() bool {
	return c.enabled.Load()
}

// Ping tests the backend connection.
func (c *Redis) Ping(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

// Stats returns local counters.
func (c *Redis) Stats() Stats {
	return Stats{
		Enabled: c.enabled.Load(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Stores:  c.stores.Load(),
		Errors:  c.errs.Load(),
	}
}

// Close releases the redis connection.
func (c *Redis) Close() error {
	return c.client.Close()
}

// usable returns true when the cache is enabled, probing the backend at
// most once per interval while disabled.
func (c *Redis) usable(ctx context.Context) bool {
	if c.enabled.Load() {
		return true
	}

	c.mu.Lock()
	due := time.Since(c.lastProbe) >= probeInterval
	if due {
		c.lastProbe = time.Now()
	}
	c.mu.Unlock()

	if !due {
		return false
	}

	if c.Ping(ctx) {
		c.enabled.Store(true)
		slog.Info("redis cache re-enabled after successful probe")
		return true
	}
	return false
}

func (c *Redis) failOpen(op string, err error) {
	c.errs.Add(1)
	if c.enabled.CompareAndSwap(true, false) {
		c.mu.Lock()
		c.lastProbe = time.Now()
		c.mu.Unlock()
		slog.Warn("redis cache unavailable, disabling cache", "op", op, "error", err)
	}
}
