package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pokegate/internal/pokemon/models"
	"pokegate/pkg/platform/sentinel"
	"pokegate/pkg/requestcontext"
)

const pokemonSchema = `
CREATE TABLE IF NOT EXISTS pokemon (
	name       TEXT PRIMARY KEY,
	pokemon_id INTEGER NOT NULL DEFAULT 0,
	sprite     TEXT NOT NULL,
	abilities  JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore persists normalized pokemon in PostgreSQL. It is the durable
// datasource consulted between the cache and PokeAPI.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed pokemon store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the pokemon table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, pokemonSchema); err != nil {
		return fmt.Errorf("ensure pokemon schema: %w", describe(err))
	}
	return nil
}

// FindByName returns the stored pokemon whose name equals name exactly.
// Returns sentinel.ErrNotFound when no row matches.
func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Pokemon, error) {
	var (
		record    models.Pokemon
		abilities []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT pokemon_id, name, sprite, abilities FROM pokemon WHERE name = $1`, name,
	).Scan(&record.ID, &record.Name, &record.Sprite, &abilities)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pokemon: %w", describe(err))
	}
	if err := json.Unmarshal(abilities, &record.Abilities); err != nil {
		return nil, fmt.Errorf("decode abilities for %q: %w", name, err)
	}
	if record.Abilities == nil {
		record.Abilities = []models.Ability{}
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("stored pokemon %q: %w", name, err)
	}
	return &record, nil
}

// Save upserts the pokemon keyed by its name.
func (s *PostgresStore) Save(ctx context.Context, record *models.Pokemon) error {
	if record == nil {
		return fmt.Errorf("pokemon record is required")
	}
	abilities := record.Abilities
	if abilities == nil {
		abilities = []models.Ability{}
	}
	payload, err := json.Marshal(abilities)
	if err != nil {
		return fmt.Errorf("encode abilities: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pokemon (name, pokemon_id, sprite, abilities, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			pokemon_id = EXCLUDED.pokemon_id,
			sprite = EXCLUDED.sprite,
			abilities = EXCLUDED.abilities,
			updated_at = EXCLUDED.updated_at
	`, record.Name, record.ID, record.Sprite, payload, requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("save pokemon: %w", describe(err))
	}
	return nil
}

// describe annotates driver errors with the SQLSTATE condition name.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w", pqErr.Code.Name(), err)
	}
	return err
}
