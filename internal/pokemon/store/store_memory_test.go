package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokegate/internal/pokemon/models"
	"pokegate/pkg/platform/sentinel"
)

func testPokemon(t *testing.T, name string) *models.Pokemon {
	t.Helper()
	p, err := models.NewPokemon(1, name, name+"_sprite.png", []models.Ability{
		{ID: 65, Name: "Overgrow", Effect: "Boosts grass-type moves"},
	})
	require.NoError(t, err)
	return p
}

func TestInMemoryCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(time.Minute)
	record := testPokemon(t, "bulbasaur")

	require.NoError(t, cache.Put(ctx, "bulbasaur", record))

	found, err := cache.Get(ctx, "bulbasaur")
	require.NoError(t, err)
	assert.Equal(t, record, found)
}

func TestInMemoryCache_MissReturnsErrNotFound(t *testing.T) {
	cache := NewInMemoryCache(time.Minute)
	_, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryCache_KeysAreExact(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(time.Minute)
	require.NoError(t, cache.Put(ctx, "Pikachu", testPokemon(t, "Pikachu")))

	_, err := cache.Get(ctx, "pikachu")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryCache_NilRecordIsNotStored(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(time.Minute)

	require.NoError(t, cache.Put(ctx, "nothing", nil))

	assert.Zero(t, cache.Len())
	_, err := cache.Get(ctx, "nothing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(time.Minute)
	now := time.Date(2024, 10, 31, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Put(ctx, "bulbasaur", testPokemon(t, "bulbasaur")))

	now = now.Add(59 * time.Second)
	_, err := cache.Get(ctx, "bulbasaur")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = cache.Get(ctx, "bulbasaur")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryCache_EntriesAreIsolatedFromCallers(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(time.Minute)
	record := testPokemon(t, "bulbasaur")
	require.NoError(t, cache.Put(ctx, "bulbasaur", record))

	record.Abilities[0].Name = "Mutated"
	found, err := cache.Get(ctx, "bulbasaur")
	require.NoError(t, err)
	assert.Equal(t, "Overgrow", found.Abilities[0].Name)

	found.Abilities[0].Name = "Mutated again"
	again, err := cache.Get(ctx, "bulbasaur")
	require.NoError(t, err)
	assert.Equal(t, "Overgrow", again.Abilities[0].Name)
}

func TestInMemoryCache_EvictsExpiredEntriesOnAccess(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(time.Minute)
	now := time.Date(2024, 10, 31, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Put(ctx, "bulbasaur", testPokemon(t, "bulbasaur")))
	require.NoError(t, cache.Put(ctx, "ivysaur", testPokemon(t, "ivysaur")))
	require.Equal(t, 2, cache.Len())

	now = now.Add(time.Minute)
	_, err := cache.Get(ctx, "bulbasaur")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Put(ctx, "bulbasaur", testPokemon(t, "bulbasaur")))
	_, err = cache.Get(ctx, "bulbasaur")
	require.NoError(t, err, "refreshed entry is served again")
}

func TestInMemoryCache_NonPositiveTTLNeverExpires(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		ctx := context.Background()
		cache := NewInMemoryCache(ttl)
		now := time.Date(2024, 10, 31, 12, 0, 0, 0, time.UTC)
		cache.now = func() time.Time { return now }
		require.NoError(t, cache.Put(ctx, "bulbasaur", testPokemon(t, "bulbasaur")))

		now = now.Add(24 * time.Hour)
		found, err := cache.Get(ctx, "bulbasaur")
		require.NoError(t, err, "ttl %s", ttl)
		assert.Equal(t, "bulbasaur", found.Name)
	}
}
