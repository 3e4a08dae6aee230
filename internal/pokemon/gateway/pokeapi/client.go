// Package pokeapi is the remote gateway to PokeAPI v2.
//
// A lookup is one request for the pokemon followed by one request per
// referenced ability. Ability requests run concurrently up to a fan-out limit
// and every outbound request waits on a shared token bucket. A circuit breaker
// fails lookups fast after a run of upstream failures.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"pokegate/internal/pokemon/metrics"
	"pokegate/internal/pokemon/models"
	dErrors "pokegate/pkg/domain-errors"
	"pokegate/pkg/platform/circuit"
	"pokegate/pkg/platform/sentinel"
)

const (
	DefaultBaseURL   = "https://pokeapi.co/api/v2"
	DefaultTimeout   = 10 * time.Second
	DefaultMaxFanout = 4

	endpointPokemon = "pokemon"
	endpointAbility = "ability"
)

// Client fetches pokemon from PokeAPI and maps them to models.Pokemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuit.Breaker
	maxFanout  int
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit throttles outbound requests to rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxFanout bounds the number of concurrent ability requests per lookup.
func WithMaxFanout(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxFanout = n
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracerProvider sets the provider spans are created from. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer("pokegate/pokeapi")
		}
	}
}

// New creates a PokeAPI client rooted at baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		breaker:    circuit.New("pokeapi"),
		maxFanout:  DefaultMaxFanout,
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer("pokegate/pokeapi"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// FindByName fetches the pokemon and all of its abilities.
//
// Returns sentinel.ErrNotFound when PokeAPI answers 404 for the pokemon.
// Transport failures, unexpected statuses and undecodable bodies are returned
// as CodeUpstream errors, as is any failed ability request. An open circuit
// and an exhausted rate limit fail with CodeUpstream wrapping
// sentinel.ErrUnavailable without reaching PokeAPI. A response that cannot
// form a valid record fails with CodeValidation.
func (c *Client) FindByName(ctx context.Context, name string) (*models.Pokemon, error) {
	ticket, ok := c.breaker.Allow()
	if !ok {
		c.metrics.SetCircuitOpen(true)
		return nil, dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUpstream, "pokeapi circuit open")
	}

	pokemon, err := c.fetch(ctx, name)
	switch {
	case err == nil, errors.Is(err, sentinel.ErrNotFound), dErrors.HasCode(err, dErrors.CodeValidation):
		c.recordSuccess(ticket)
	case ctx.Err() != nil, errors.Is(err, sentinel.ErrUnavailable):
		// Abandoned by the caller or throttled locally; PokeAPI was not judged.
		c.breaker.Release(ticket)
	default:
		c.recordFailure(ctx, ticket, err)
	}
	return pokemon, err
}

func (c *Client) fetch(ctx context.Context, name string) (*models.Pokemon, error) {
	var raw PokemonResponse
	if err := c.getJSON(ctx, endpointPokemon, c.baseURL+"/pokemon/"+url.PathEscape(name), &raw); err != nil {
		return nil, err
	}

	abilities, err := c.fetchAbilities(ctx, raw.Abilities)
	if err != nil {
		return nil, err
	}

	return MapPokemon(raw, abilities)
}

// fetchAbilities resolves every ability reference. Results keep reference order.
func (c *Client) fetchAbilities(ctx context.Context, slots []AbilitySlot) ([]AbilityResponse, error) {
	abilities := make([]AbilityResponse, len(slots))
	if len(slots) == 0 {
		return abilities, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxFanout)
	for i, slot := range slots {
		g.Go(func() error {
			if slot.Ability.URL == "" {
				return dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("ability %q has no url", slot.Ability.Name))
			}
			err := c.getJSON(gctx, endpointAbility, slot.Ability.URL, &abilities[i])
			if errors.Is(err, sentinel.ErrNotFound) {
				// A dangling ability reference is an upstream fault, not a missing pokemon.
				return dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("ability %q not found", slot.Ability.Name))
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return abilities, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, target string, out any) error {
	ctx, span := c.tracer.Start(ctx, "pokeapi."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.full", target),
		),
	)
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			err = fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
			return c.fail(span, dErrors.Wrap(err, dErrors.CodeUpstream, "pokeapi rate limit wait"))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return c.fail(span, dErrors.Wrap(err, dErrors.CodeUpstream, "create pokeapi request"))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, "error", time.Since(start))
		return c.fail(span, dErrors.Wrap(err, dErrors.CodeUpstream, "pokeapi request failed"))
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.ObserveUpstream(endpoint, statusClass(resp.StatusCode), time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		return sentinel.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("GET %s: status %d", target, resp.StatusCode)
		return c.fail(span, dErrors.Wrap(err, dErrors.CodeUpstream, "pokeapi returned unexpected status"))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.fail(span, dErrors.Wrap(err, dErrors.CodeUpstream, "decode pokeapi response"))
	}
	return nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, dErrors.MessageOf(err))
	return err
}

func (c *Client) recordSuccess(ticket circuit.Ticket) {
	if _, change := c.breaker.RecordSuccess(ticket); change.Closed {
		c.logger.Info("pokeapi circuit closed")
		c.metrics.SetCircuitOpen(false)
	}
}

func (c *Client) recordFailure(ctx context.Context, ticket circuit.Ticket, err error) {
	if _, change := c.breaker.RecordFailure(ticket); change.Opened {
		c.logger.WarnContext(ctx, "pokeapi circuit opened", "error", err)
		c.metrics.SetCircuitOpen(true)
	}
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
