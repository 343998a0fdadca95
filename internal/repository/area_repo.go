package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AreaRepo stores the single-row assignment-area configuration.
type AreaRepo struct {
	pool *pgxpool.Pool
}

func NewAreaRepo(pool *pgxpool.Pool) *AreaRepo {
	return &AreaRepo{pool: pool}
}

// Get returns the configured area names; an unconfigured tenant yields an
// empty slice.
func (r *AreaRepo) Get(ctx context.Context) ([]string, error) {
	var areas []string
	err := r.pool.QueryRow(ctx, `SELECT areas FROM area_config WHERE id = 1`).Scan(&areas)
	if errors.Is(err, pgx.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return areas, nil
}

// Set replaces the configured area names.
func (r *AreaRepo) Set(ctx context.Context, areas []string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO area_config (id, areas, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET areas = EXCLUDED.areas, updated_at = now()
	`, areas)
	return err
}
