package kv

import (
	"context"
	"errors"
	"sync"

	"profile-backend/internal/shared/telemetry"
)

// Cache fronts a Store with an in-process copy. It is created once at
// startup, warmed from the backing store, and shared by reference.
// Reads go through to the backing store on a miss; writes go to the backing
// store first and update the copy only when that succeeds.
type Cache struct {
	backing Store

	mu      sync.RWMutex
	entries map[string][]byte
}

func NewCache(backing Store) *Cache {
	return &Cache{backing: backing, entries: make(map[string][]byte)}
}

// Warm loads every backing entry into the cache.
func (c *Cache) Warm(ctx context.Context) error {
	all, err := c.backing.All(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	for k, v := range all {
		c.entries[k] = v
	}
	n := len(c.entries)
	c.mu.Unlock()
	telemetry.Info("kv.cache.warm", map[string]any{"entries": n})
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return clone(v), nil
	}

	v, err := c.backing.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = clone(v)
	c.mu.Unlock()
	return v, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.backing.Set(ctx, key, value); err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = clone(value)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Remove(ctx context.Context, key string) error {
	if err := c.backing.Remove(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *Cache) All(ctx context.Context) (map[string][]byte, error) {
	return c.backing.All(ctx)
}

var _ Store = (*Cache)(nil)
