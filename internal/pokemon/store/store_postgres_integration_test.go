//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"pokegate/internal/pokemon/models"
	"pokegate/internal/pokemon/store"
	dErrors "pokegate/pkg/domain-errors"
	"pokegate/pkg/platform/sentinel"
	"pokegate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "pokemon"))
}

func (s *PostgresStoreSuite) TestEnsureSchemaIsIdempotent() {
	s.NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) TestSaveThenFind() {
	ctx := context.Background()
	record, err := models.NewPokemon(6, "charizard", "https://sprites/6.png", []models.Ability{
		{ID: 66, Name: "blaze", Effect: "Powers up fire moves."},
		{ID: 94, Name: "solar-power", Effect: ""},
	})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Save(ctx, record))

	found, err := s.store.FindByName(ctx, "charizard")
	s.Require().NoError(err)
	s.Equal(record, found)
}

func (s *PostgresStoreSuite) TestFindMissingReturnsErrNotFound() {
	_, err := s.store.FindByName(context.Background(), "missingno")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindRejectsInvalidRow() {
	ctx := context.Background()
	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO pokemon (name, pokemon_id, sprite, abilities) VALUES ($1, $2, '', '[]')`, "porygon", 137)
	s.Require().NoError(err)

	found, err := s.store.FindByName(ctx, "porygon")
	s.Nil(found)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.NotErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSaveOverwritesExistingRow() {
	ctx := context.Background()
	first, err := models.NewPokemon(25, "pikachu", "old.png", []models.Ability{{Name: "static"}})
	s.Require().NoError(err)
	second, err := models.NewPokemon(25, "pikachu", "new.png", []models.Ability{{Name: "lightning-rod"}})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Save(ctx, first))
	s.Require().NoError(s.store.Save(ctx, second))

	found, err := s.store.FindByName(ctx, "pikachu")
	s.Require().NoError(err)
	s.Equal("new.png", found.Sprite)
	s.Require().Len(found.Abilities, 1)
	s.Equal("lightning-rod", found.Abilities[0].Name)
}

func (s *PostgresStoreSuite) TestConcurrentSavesLeaveOneRow() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			record, err := models.NewPokemon(idx, "ditto", "ditto.png", []models.Ability{{Name: "limber"}})
			if err != nil {
				return
			}
			_ = s.store.Save(ctx, record)
		}(i)
	}
	wg.Wait()

	var count int
	err := s.postgres.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM pokemon WHERE name = $1", "ditto").Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)
}
