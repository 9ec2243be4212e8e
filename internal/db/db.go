// Package db provides PostgreSQL-backed storage for the rendered-page cache.
// The cache is an optional accelerator: it remembers rendered HTML so an
// aborted shard does not re-render pages on restart, and it remembers
// failing URLs so they back off. Pipeline semantics never depend on it.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and ensures the cache schema exists.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

func (db *DB) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS rendered_pages (
    id         UUID PRIMARY KEY,
    url        TEXT NOT NULL UNIQUE,
    html       TEXT NOT NULL,
    fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS fetch_failures (
    url            TEXT PRIMARY KEY,
    failure_count  INT NOT NULL DEFAULT 0,
    last_error     TEXT,
    last_failed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure cache schema: %w", err)
	}
	return nil
}
