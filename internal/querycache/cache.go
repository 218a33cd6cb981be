// Package querycache memoises list and detail fetches keyed by path-like
// strings ("orders/list", "orders/<id>") and drops them when data changes.
package querycache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value    interface{}
	storedAt time.Time
}

// Cache is safe for concurrent use. Every key carries a generation that
// Invalidate and Remove bump; a load that started under an older generation
// returns its result to the caller but does not store it, so the latest load wins.
type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	loads singleflight.Group

	mu      sync.Mutex
	entries map[string]entry
	gens    map[string]uint64
}

// New returns a cache whose entries expire after ttl. A zero ttl keeps entries
// until they are invalidated.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
		gens:    make(map[string]uint64),
	}
}

// ListKey is the key of an entity's list.
func ListKey(entity string) string { return entity + "/list" }

// DeletedListKey is the key of an entity's list including soft-deleted
// records. Invalidating ListKey also drops it.
func DeletedListKey(entity string) string { return ListKey(entity) + "?deleted" }

// ItemKey is the key of one record.
func ItemKey(entity, id string) string { return entity + "/" + id }

// Fetch returns the cached value for key or calls load and caches its result.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	gen := c.generation(key)
	v, err, _ := c.loads.Do(key+"#"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Peek returns the cached value without loading.
func (c *Cache) Peek(key string) (interface{}, bool) {
	return c.lookup(key)
}

// Invalidate drops every key starting with prefix.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.gens {
		if strings.HasPrefix(key, prefix) {
			c.gens[key]++
			delete(c.entries, key)
		}
	}
}

// Remove drops one key.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	delete(c.entries, key)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// generation registers key and returns its current generation.
func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen, ok := c.gens[key]
	if !ok {
		c.gens[key] = 0
	}
	return gen
}

func (c *Cache) store(key string, gen uint64, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		return
	}
	c.entries[key] = entry{value: value, storedAt: c.now()}
}
