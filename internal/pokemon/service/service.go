package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Gateway,Cache,Datasource

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"pokegate/internal/pokemon/metrics"
	"pokegate/internal/pokemon/models"
	dErrors "pokegate/pkg/domain-errors"
	"pokegate/pkg/platform/sentinel"
	"pokegate/pkg/requestcontext"
)

// Gateway fetches a pokemon and its abilities from the authoritative source.
// It returns sentinel.ErrNotFound when the source does not know the name.
// Transport failures are returned as the gateway classifies them.
type Gateway interface {
	FindByName(ctx context.Context, name string) (*models.Pokemon, error)
}

// Cache is the fast lookup store. Get returns sentinel.ErrNotFound on miss.
// TTL and eviction are owned by the implementation.
type Cache interface {
	Get(ctx context.Context, name string) (*models.Pokemon, error)
	Put(ctx context.Context, name string, pokemon *models.Pokemon) error
}

// Datasource is the optional durable store consulted between the cache and
// the gateway. FindByName returns sentinel.ErrNotFound on miss.
type Datasource interface {
	FindByName(ctx context.Context, name string) (*models.Pokemon, error)
	Save(ctx context.Context, pokemon *models.Pokemon) error
}

// Service resolves pokemon with a cache-aside cascade:
// cache -> datasource (optional) -> gateway.
type Service struct {
	gateway    Gateway
	cache      Cache
	datasource Datasource
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCache enables the cache step.
func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithDatasource enables the durable store step.
func WithDatasource(ds Datasource) Option {
	return func(s *Service) { s.datasource = ds }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the lookup service. The gateway is required.
func New(gateway Gateway, opts ...Option) (*Service, error) {
	if gateway == nil {
		return nil, errors.New("gateway is required")
	}
	s := &Service{gateway: gateway}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s, nil
}

var tracer = otel.Tracer("pokegate/internal/pokemon/service")

// Lookup returns the normalized pokemon for name.
//
// Cached and stored records are returned as stored; only records fresh from
// the gateway are sorted and written back. A name no source knows yields a
// CodeNotFound error and no writes.
func (s *Service) Lookup(ctx context.Context, name models.Name) (*models.Pokemon, error) {
	ctx, span := tracer.Start(ctx, "pokemon.lookup")
	span.SetAttributes(attribute.String("pokemon.name", name.String()))
	defer span.End()

	start := time.Now()
	pokemon, source, err := s.lookup(ctx, name.String())
	s.metrics.ObserveLookupLatency(time.Since(start))
	s.metrics.IncrementLookup(source)
	span.SetAttributes(attribute.String("pokemon.source", source))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return pokemon, nil
}

func (s *Service) lookup(ctx context.Context, key string) (*models.Pokemon, string, error) {
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, metrics.SourceCache, nil
	}

	if s.datasource != nil {
		stored, err := s.datasource.FindByName(ctx, key)
		switch {
		case err == nil:
			s.toCache(ctx, key, stored)
			return stored, metrics.SourceDatastore, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, metrics.SourceError, err
		}
	}

	fetched, err := s.gateway.FindByName(ctx, key)
	if err == nil && fetched == nil {
		err = sentinel.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.InfoContext(ctx, "pokemon not found",
				"request_id", requestcontext.RequestID(ctx),
				"name", key,
			)
			return nil, metrics.SourceNotFound, dErrors.New(dErrors.CodeNotFound, "Pokemon not found")
		}
		return nil, metrics.SourceError, err
	}

	fetched.SortAbilities()

	if s.datasource != nil {
		if err := s.datasource.Save(ctx, fetched); err != nil {
			return nil, metrics.SourceError, err
		}
	}
	s.toCache(ctx, key, fetched)

	return fetched, metrics.SourceGateway, nil
}

// fromCache treats any cache failure as a miss.
func (s *Service) fromCache(ctx context.Context, key string) (*models.Pokemon, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, err := s.cache.Get(ctx, key)
	if err == nil && cached != nil {
		s.metrics.RecordCache("get", "hit")
		return cached, true
	}
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.RecordCache("get", "error")
		s.logger.WarnContext(ctx, "cache read failed",
			"request_id", requestcontext.RequestID(ctx),
			"name", key,
			"error", err,
		)
		return nil, false
	}
	s.metrics.RecordCache("get", "miss")
	return nil, false
}

func (s *Service) toCache(ctx context.Context, key string, pokemon *models.Pokemon) {
	if s.cache == nil || pokemon == nil {
		return
	}
	if err := s.cache.Put(ctx, key, pokemon); err != nil {
		s.metrics.RecordCache("put", "error")
		s.logger.WarnContext(ctx, "cache write failed",
			"request_id", requestcontext.RequestID(ctx),
			"name", key,
			"error", err,
		)
		return
	}
	s.metrics.RecordCache("put", "ok")
}
