package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pokegate/internal/platform/config"
	"pokegate/internal/platform/httpserver"
	"pokegate/internal/platform/logger"
	"pokegate/internal/platform/metrics"
	"pokegate/internal/platform/postgres"
	"pokegate/internal/platform/redis"
	"pokegate/internal/pokemon/gateway/pokeapi"
	"pokegate/internal/pokemon/handler"
	pokemonmetrics "pokegate/internal/pokemon/metrics"
	"pokegate/internal/pokemon/service"
	"pokegate/internal/pokemon/store"
	httptransport "pokegate/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	for _, w := range cfg.Warnings {
		log.Warn("config", "warning", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := metrics.NewRegistry()
	httpMetrics := metrics.New(reg)
	lookupMetrics := pokemonmetrics.New(reg)
	healthChecks := map[string]httptransport.HealthChecker{}

	client := pokeapi.New(cfg.PokeAPI.BaseURL,
		pokeapi.WithTimeout(cfg.PokeAPI.Timeout),
		pokeapi.WithRateLimit(cfg.PokeAPI.RateRPS, cfg.PokeAPI.RateBurst),
		pokeapi.WithMaxFanout(cfg.PokeAPI.MaxFanout),
		pokeapi.WithMetrics(lookupMetrics),
		pokeapi.WithLogger(log),
	)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(lookupMetrics),
	}

	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redisClient, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		healthChecks["redis"] = redisClient
		opts = append(opts, service.WithCache(store.NewRedisCache(redisClient.Client, cfg.Cache.TTL)))
	case config.CacheBackendMemory:
		opts = append(opts, service.WithCache(store.NewInMemoryCache(cfg.Cache.TTL)))
	}

	pg, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if pg != nil {
		defer func() { _ = pg.Close() }()
		datastore := store.NewPostgresStore(pg.DB)
		if err := datastore.EnsureSchema(ctx); err != nil {
			return err
		}
		healthChecks["postgres"] = pg
		opts = append(opts, service.WithDatasource(datastore))
	}

	svc, err := service.New(client, opts...)
	if err != nil {
		return fmt.Errorf("build lookup service: %w", err)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        httpMetrics,
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthChecks:   healthChecks,
	}, handler.New(svc, log))

	srv := httpserver.New(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting pokegate",
			"addr", cfg.Server.Addr,
			"cache", cfg.Cache.Backend,
			"datastore", pg != nil,
			"pokeapi", cfg.PokeAPI.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
