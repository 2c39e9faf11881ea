// Package moldcache memoizes corectx.ResolveDefault (spec.md §4.7) behind
// a two-tier cache: an in-process LRU (github.com/hashicorp/golang-lru/v2)
// backed by a shared Redis tier (github.com/redis/go-redis/v9), keyed by
// the mold-equivalent identity and target version (SPEC_FULL.md's
// "mold-equivalent cache key" glossary entry). Adapted from the teacher's
// internal/infrastructure/cache/redis.go (RedisCache): the Get/Set/Delete
// surface is the same shape, narrowed from a general string cache to the
// single (key -> resolved default string) relationship this package needs,
// and fronted by an L1 the teacher's cache never had.
package moldcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vitaliisemenov/moldctl/pkg/moldapi"
)

// Key identifies one resolution: the mold-equivalent context that owns
// the Default chain, plus the version the caller resolved against.
type Key struct {
	MoldEquivalent string // stable identity of the Keyval, e.g. its query path from the mold root
	Version        string
}

func (k Key) redisKey() string {
	return fmt.Sprintf("moldcache:default:%s@%s", k.MoldEquivalent, k.Version)
}

// Cache is the two-tier resolution cache. A nil *redis.Client degrades it
// to an L1-only cache, which is what cmd/moldctl builds unless the config
// selects the standard profile and sets redis.addr.
type Cache struct {
	l1    *lru.Cache[Key, string]
	redis *redis.Client
	ttl   time.Duration
	log   *slog.Logger
}

// Config bounds the L1 size and the L2 entry TTL.
type Config struct {
	L1Size int
	TTL    time.Duration
}

func DefaultConfig() Config {
	return Config{L1Size: 4096, TTL: 10 * time.Minute}
}

// New constructs a Cache. redisClient may be nil.
func New(cfg Config, redisClient *redis.Client, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.L1Size <= 0 {
		cfg.L1Size = DefaultConfig().L1Size
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	l1, err := lru.New[Key, string](cfg.L1Size)
	if err != nil {
		return nil, fmt.Errorf("moldcache: create L1: %w", err)
	}
	return &Cache{l1: l1, redis: redisClient, ttl: cfg.TTL, log: log}, nil
}

// Resolve returns the cached default string for key, consulting L1 then
// L2 (if configured) before falling back to resolve, which runs
// corectx.ResolveDefault (via moldapi.GetDefault) and populates both tiers
// on success.
func (c *Cache) Resolve(ctx context.Context, key Key, resolve func() (string, error)) (string, error) {
	if v, ok := c.l1.Get(key); ok {
		return v, nil
	}

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key.redisKey()).Result()
		if err == nil {
			var v string
			if jsonErr := json.Unmarshal([]byte(raw), &v); jsonErr == nil {
				c.l1.Add(key, v)
				return v, nil
			}
		} else if err != redis.Nil {
			c.log.Warn("moldcache: redis get failed, falling back to resolve", "key", key, "error", err)
		}
	}

	v, err := resolve()
	if err != nil {
		return "", err
	}

	c.l1.Add(key, v)
	if c.redis != nil {
		if data, mErr := json.Marshal(v); mErr == nil {
			if err := c.redis.Set(ctx, key.redisKey(), data, c.ttl).Err(); err != nil {
				c.log.Warn("moldcache: redis set failed", "key", key, "error", err)
			}
		}
	}
	return v, nil
}

// Invalidate drops key from both tiers. Nothing calls it automatically
// when a context mutates or is destroyed; cached entries otherwise stay
// until L1 eviction or the L2 TTL.
func (c *Cache) Invalidate(ctx context.Context, key Key) {
	c.l1.Remove(key)
	if c.redis != nil {
		if err := c.redis.Del(ctx, key.redisKey()).Err(); err != nil {
			c.log.Warn("moldcache: redis invalidate failed", "key", key, "error", err)
		}
	}
}

// ResolveDefault is the moldapi-aware convenience wrapper: it resolves
// Keyval's default at version through the cache, calling
// moldapi.GetDefault on a miss.
func ResolveDefault(ctx context.Context, c *Cache, keyval *moldapi.Context, moldEquivalentPath string, version moldapi.Version) (string, error) {
	key := Key{MoldEquivalent: moldEquivalentPath, Version: version.String()}
	return c.Resolve(ctx, key, func() (string, error) {
		return moldapi.GetDefault(keyval, version)
	})
}
