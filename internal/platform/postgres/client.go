package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "postgres" driver with database/sql.
	_ "github.com/lib/pq"

	"pokegate/internal/platform/config"
)

// Client wraps a database/sql pool with health checking capabilities.
type Client struct {
	*sql.DB
}

// New opens a Postgres pool from the provided configuration.
// Returns nil if the URL is empty (Postgres not configured).
func New(ctx context.Context, cfg config.Database) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return &Client{DB: db}, nil
}

// Health checks if the Postgres connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.PingContext(ctx)
}
