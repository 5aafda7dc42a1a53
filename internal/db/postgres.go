// Package db provides connection helpers for the optional backing stores.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on startup. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS saved_searches (
	id          UUID PRIMARY KEY,
	name        TEXT        NOT NULL,
	query       TEXT        NOT NULL,
	region_only BOOLEAN     NOT NULL DEFAULT true,
	exclude     TEXT[]      NOT NULL DEFAULT '{}',
	is_active   BOOLEAN     NOT NULL DEFAULT true,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS search_runs (
	id              UUID PRIMARY KEY,
	saved_search_id UUID        NOT NULL REFERENCES saved_searches(id) ON DELETE CASCADE,
	attempted       INT         NOT NULL,
	succeeded       INT         NOT NULL,
	failed          TEXT[]      NOT NULL DEFAULT '{}',
	total           INT         NOT NULL,
	ran_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS search_runs_saved_search_idx
	ON search_runs (saved_search_id, ran_at DESC);
`

// NewPostgresPool opens a pgxpool, verifies it and applies the schema.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return pool, nil
}
