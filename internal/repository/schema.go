package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS agent_profiles (
	agent_id         TEXT PRIMARY KEY,
	area             TEXT NOT NULL DEFAULT 'unset',
	schedule_desc    TEXT NOT NULL DEFAULT '',
	hourly_rate      DOUBLE PRECISION NOT NULL DEFAULT 0,
	non_working_days TEXT[] NOT NULL DEFAULT '{}',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS area_config (
	id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	areas      TEXT[] NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the profile-store tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaDDL)
	return err
}
