package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"pokegate/internal/pokemon/models"
	"pokegate/pkg/platform/sentinel"
)

type cachedPokemon struct {
	record   models.Pokemon
	storedAt time.Time
}

// InMemoryCache provides an in-process pokemon cache with TTL expiration.
// Records are copied on the way in and out so callers cannot mutate entries.
type InMemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]cachedPokemon
	cacheTTL time.Duration
	now      func() time.Time
}

// NewInMemoryCache creates a new in-memory cache with the specified TTL.
// A non-positive TTL keeps entries until they are overwritten.
func NewInMemoryCache(cacheTTL time.Duration) *InMemoryCache {
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	return &InMemoryCache{
		entries:  make(map[string]cachedPokemon),
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Put stores a record under the exact lookup name.
// If record is nil, the operation is a no-op and returns nil.
func (c *InMemoryCache) Put(_ context.Context, name string, record *models.Pokemon) error {
	if record == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = cachedPokemon{record: clone(record), storedAt: c.now()}
	return nil
}

// Get retrieves a cached record by exact name.
// Returns sentinel.ErrNotFound if the record does not exist or has expired past
// the cache TTL. Expired entries are evicted on access.
func (c *InMemoryCache) Get(_ context.Context, name string) (*models.Pokemon, error) {
	c.mu.RLock()
	cached, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if c.expired(cached) {
		c.mu.Lock()
		// Re-check: a concurrent Put may have refreshed the entry.
		if current, ok := c.entries[name]; ok && c.expired(current) {
			delete(c.entries, name)
		}
		c.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	record := clone(&cached.record)
	return &record, nil
}

func (c *InMemoryCache) expired(entry cachedPokemon) bool {
	return c.cacheTTL > 0 && c.now().Sub(entry.storedAt) >= c.cacheTTL
}

// Len reports the number of entries, including expired entries not yet evicted.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func clone(p *models.Pokemon) models.Pokemon {
	out := *p
	out.Abilities = slices.Clone(p.Abilities)
	if out.Abilities == nil {
		out.Abilities = []models.Ability{}
	}
	return out
}
