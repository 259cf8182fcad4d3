package vfs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Observer receives cache lifecycle notifications. It exists so telemetry
// stays out of the cache's core logic; tests and metrics both implement it.
type Observer interface {
	Hit(path string)
	Miss(path string)
	Fill(path string)
	Invalidate(path string)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) Hit(string)        {}
func (NopObserver) Miss(string)       {}
func (NopObserver) Fill(string)       {}
func (NopObserver) Invalidate(string) {}

// CachedStore is a read-through cache in front of a mutable store. Entries
// are keyed by (namespace, normalized path) and removed, never updated in
// place, when the underlying path is written or deleted. Capacity eviction
// is left to redis TTLs; an evicted entry only costs a future miss.
type CachedStore struct {
	inner     Store
	namespace string
	client    *redis.Client
	ttl       time.Duration
	observer  Observer
	logger    zerolog.Logger
}

// CacheConfig controls cache construction.
type CacheConfig struct {
	Enabled  bool
	TTL      time.Duration
	Observer Observer
}

// NewCachedStore wraps a mutable store in a read-through cache. When the
// cache feature flag is off the inner store is returned untouched, so every
// Get is a direct passthrough.
func NewCachedStore(inner Store, namespace string, client *redis.Client, cfg CacheConfig, logger zerolog.Logger) Store {
	if !cfg.Enabled || client == nil {
		return inner
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	return &CachedStore{
		inner:     inner,
		namespace: namespace,
		client:    client,
		ttl:       cfg.TTL,
		observer:  observer,
		logger:    logger.With().Str("component", "vfs_cache").Str("namespace", namespace).Logger(),
	}
}

func (c *CachedStore) IsReadOnly() bool { return c.inner.IsReadOnly() }

func (c *CachedStore) Get(ctx context.Context, p string) (*Entity, error) {
	p = NormalizePath(p)
	key := c.key(p)

	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var entity Entity
		if unmarshalErr := json.Unmarshal(cached, &entity); unmarshalErr == nil {
			c.observer.Hit(p)
			return &entity, nil
		}
		// Unreadable entry; drop it and fall through to the store.
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn().Err(err).Str("path", p).Msg("cache read failed")
	}

	c.observer.Miss(p)

	entity, err := c.inner.Get(ctx, p)
	if err != nil || entity == nil {
		return entity, err
	}

	if payload, err := json.Marshal(entity); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("path", p).Msg("cache fill failed")
		} else {
			c.observer.Fill(p)
		}
	}

	return entity, nil
}

func (c *CachedStore) Put(ctx context.Context, p string, data []byte, opts PutOptions) error {
	p = NormalizePath(p)
	if err := c.inner.Put(ctx, p, data, opts); err != nil {
		return err
	}
	// The write is durable but not yet acknowledged to the caller; the stale
	// entry must be gone before we return so no reader who saw the write
	// complete can then read older cached bytes.
	return c.invalidate(ctx, p)
}

func (c *CachedStore) Delete(ctx context.Context, p string) error {
	p = NormalizePath(p)
	if err := c.inner.Delete(ctx, p); err != nil {
		return err
	}
	return c.invalidate(ctx, p)
}

func (c *CachedStore) List(ctx context.Context, prefix string) ([]string, error) {
	// Listings are not cached; they are cheap relative to content reads and
	// would otherwise need prefix-wide invalidation.
	return c.inner.List(ctx, prefix)
}

func (c *CachedStore) invalidate(ctx context.Context, p string) error {
	if err := c.client.Del(ctx, c.key(p)).Err(); err != nil {
		return fmt.Errorf("invalidate cache for %s: %w", p, err)
	}
	c.observer.Invalidate(p)
	return nil
}

func (c *CachedStore) key(p string) string {
	return "vfs:" + c.namespace + ":" + p
}
