package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"pokegate/internal/pokemon/models"
	"pokegate/internal/pokemon/service"
	"pokegate/internal/pokemon/store"
	dErrors "pokegate/pkg/domain-errors"
	"pokegate/pkg/platform/sentinel"
	"pokegate/pkg/testutil"
)

// stubGateway answers from a fixed table and counts calls.
type stubGateway struct {
	pokemon map[string]*models.Pokemon
	err     error
	calls   atomic.Int32
}

func (g *stubGateway) FindByName(_ context.Context, name string) (*models.Pokemon, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, g.err
	}
	p, ok := g.pokemon[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *p
	out.Abilities = append([]models.Ability(nil), p.Abilities...)
	return &out, nil
}

type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	gateway *stubGateway
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.gateway = &stubGateway{pokemon: map[string]*models.Pokemon{
		"bulbasaur": {
			ID:     1,
			Name:   "bulbasaur",
			Sprite: "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/1.png",
			Abilities: []models.Ability{
				{ID: 65, Name: "overgrow", Effect: "Powers up Grass-type moves in a pinch."},
				{ID: 34, Name: "chlorophyll", Effect: "Boosts the Pokémon's Speed stat in harsh sunlight."},
			},
		},
	}}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc, err := service.New(s.gateway,
		service.WithCache(store.NewInMemoryCache(time.Hour)),
		service.WithLogger(logger),
	)
	s.Require().NoError(err)

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) TestLookup_Found() {
	rr := testutil.DoRequest(s.router, testutil.NewLookupRequest(s.T(), "bulbasaur"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("application/json", rr.Header().Get("Content-Type"))
	s.JSONEq(`{
		"id": 1,
		"name": "bulbasaur",
		"sprite": "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/1.png",
		"abilities": [
			{"id": 34, "name": "chlorophyll", "effect": "Boosts the Pokémon's Speed stat in harsh sunlight."},
			{"id": 65, "name": "overgrow", "effect": "Powers up Grass-type moves in a pinch."}
		]
	}`, rr.Body.String())
}

func (s *HandlerSuite) TestLookup_SecondRequestIsServedFromCache() {
	first := testutil.DoRequest(s.router, testutil.NewLookupRequest(s.T(), "bulbasaur"))
	second := testutil.DoRequest(s.router, testutil.NewLookupRequest(s.T(), "bulbasaur"))

	testutil.AssertStatus(s.T(), first, http.StatusOK)
	testutil.AssertStatus(s.T(), second, http.StatusOK)
	s.JSONEq(first.Body.String(), second.Body.String())
	s.Equal(int32(1), s.gateway.calls.Load())
}

func (s *HandlerSuite) TestLookup_NotFound() {
	rr := testutil.DoRequest(s.router, testutil.NewLookupRequest(s.T(), "missingno"))

	testutil.AssertErrorResponse(s.T(), rr, http.StatusNotFound, "Pokemon not found")
}

func (s *HandlerSuite) TestLookup_MissingName() {
	for _, path := range []string{"/v1/pokemon", "/v1/pokemon?name="} {
		s.Run(path, func() {
			rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path))

			testutil.AssertErrorResponse(s.T(), rr, http.StatusUnprocessableEntity, "Name cannot be null")
			s.Equal(int32(0), s.gateway.calls.Load())
		})
	}
}

func (s *HandlerSuite) TestLookup_UpstreamFailure() {
	s.gateway.err = dErrors.Wrap(errors.New("connection refused"), dErrors.CodeUpstream, "pokeapi request failed")

	rr := testutil.DoRequest(s.router, testutil.NewLookupRequest(s.T(), "bulbasaur"))

	testutil.AssertErrorResponse(s.T(), rr, http.StatusBadGateway, "pokeapi request failed")
}

func (s *HandlerSuite) TestLookup_UnexpectedFailureIsGeneric() {
	s.gateway.err = errors.New("pq: password authentication failed")

	rr := testutil.DoRequest(s.router, testutil.NewLookupRequest(s.T(), "bulbasaur"))

	testutil.AssertErrorResponse(s.T(), rr, http.StatusInternalServerError, "An unexpected error occurred")
}

func (s *HandlerSuite) TestLookup_ErrorCarriesPathAndTimestamp() {
	fixed := time.Date(2024, 10, 31, 12, 0, 0, 0, time.UTC)
	req := testutil.WithRequestTime(testutil.NewLookupRequest(s.T(), "missingno"), fixed)
	req = testutil.WithRequestID(req, "req-123")

	rr := testutil.DoRequest(s.router, req)

	body := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Equal("/v1/pokemon", body.Path)
	s.True(fixed.Equal(body.Timestamp))
}

func (s *HandlerSuite) TestLookup_NameIsNotNormalized() {
	rr := testutil.DoRequest(s.router, testutil.NewLookupRequest(s.T(), "Bulbasaur"))

	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}
