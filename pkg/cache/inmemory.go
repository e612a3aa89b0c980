package cache

import (
	"context"
	"sync"
	"time"
)

type (
	InMemory[V any] struct {
		items map[string]item[V]
		now   func() time.Time

		mx sync.RWMutex
	}

	item[V any] struct {
		value     V
		expiresAt time.Time
	}
)

func NewInMemory[V any]() *InMemory[V] {
	return &InMemory[V]{
		items: make(map[string]item[V], 100), //nolint:mnd // initial capacity
		now:   time.Now,

		mx: sync.RWMutex{},
	}
}

// Get returns the value stored under key unless it has expired.
func (c *InMemory[V]) Get(key string) (V, bool) {
	c.mx.RLock()
	defer c.mx.RUnlock()

	it, ok := c.items[key]
	if !ok || !c.now().Before(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Take removes the value stored under key and returns it unless it has expired.
// Only one of concurrent callers taking the same key gets the value.
func (c *InMemory[V]) Take(key string) (V, bool) {
	c.mx.Lock()
	defer c.mx.Unlock()

	it, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.items, key)
	if !c.now().Before(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *InMemory[V]) Set(key string, value V, ttl time.Duration) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.items[key] = item[V]{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *InMemory[V]) Delete(key string) {
	c.mx.Lock()
	defer c.mx.Unlock()
	delete(c.items, key)
}

func (c *InMemory[V]) Len() int {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return len(c.items)
}

// StartCleanup evicts expired items every interval until ctx is done.
func (c *InMemory[V]) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
				c.evictExpired()
			}
		}
	}()
}

func (c *InMemory[V]) evictExpired() {
	c.mx.Lock()
	defer c.mx.Unlock()
	now := c.now()
	for key, it := range c.items {
		if !now.Before(it.expiresAt) {
			delete(c.items, key)
		}
	}
}
