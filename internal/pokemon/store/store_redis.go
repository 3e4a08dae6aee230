package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pokegate/internal/pokemon/models"
	"pokegate/pkg/platform/sentinel"
)

const (
	// Redis key prefix for cached pokemon
	pokemonKeyPrefix = "pokemon:"
)

// RedisCache is a Redis-backed pokemon cache shared between instances.
// Entries are stored as JSON and expire through Redis TTLs.
type RedisCache struct {
	client   *redis.Client
	cacheTTL time.Duration
}

// NewRedisCache constructs a Redis-backed cache. A non-positive TTL stores
// entries without expiry.
func NewRedisCache(client *redis.Client, cacheTTL time.Duration) *RedisCache {
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	return &RedisCache{client: client, cacheTTL: cacheTTL}
}

// Put stores a record under the exact lookup name.
// If record is nil, the operation is a no-op and returns nil.
func (c *RedisCache) Put(ctx context.Context, name string, record *models.Pokemon) error {
	if record == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode cached pokemon: %w", err)
	}
	return c.client.Set(ctx, pokemonKeyPrefix+name, payload, c.cacheTTL).Err()
}

// Get retrieves a cached record by exact name.
// Returns sentinel.ErrNotFound if the key does not exist or has expired.
func (c *RedisCache) Get(ctx context.Context, name string) (*models.Pokemon, error) {
	payload, err := c.client.Get(ctx, pokemonKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var record models.Pokemon
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode cached pokemon %q: %w", name, err)
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("cached pokemon %q: %w", name, err)
	}
	return &record, nil
}
