package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staffdesk/backend/internal/models"
)

// ProfileRepo is the durable store for agent profiles.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// Get returns the stored profile, or (nil, nil) when the agent has no row.
// Callers substitute models.DefaultProfile for an absent row.
func (r *ProfileRepo) Get(ctx context.Context, agentID string) (*models.Profile, error) {
	var p models.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT agent_id, area, schedule_desc, hourly_rate, non_working_days, updated_at
		FROM agent_profiles WHERE agent_id = $1
	`, agentID).Scan(&p.AgentID, &p.Area, &p.ScheduleDesc, &p.HourlyRate, &p.NonWorkingDays, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAll returns every stored profile keyed by agent id.
func (r *ProfileRepo) GetAll(ctx context.Context) (map[string]*models.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT agent_id, area, schedule_desc, hourly_rate, non_working_days, updated_at
		FROM agent_profiles
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*models.Profile)
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.AgentID, &p.Area, &p.ScheduleDesc, &p.HourlyRate, &p.NonWorkingDays, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.AgentID] = &p
	}
	return out, rows.Err()
}

// Upsert creates or replaces the agent's profile row.
func (r *ProfileRepo) Upsert(ctx context.Context, p *models.Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO agent_profiles (agent_id, area, schedule_desc, hourly_rate, non_working_days, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (agent_id) DO UPDATE SET
			area = EXCLUDED.area,
			schedule_desc = EXCLUDED.schedule_desc,
			hourly_rate = EXCLUDED.hourly_rate,
			non_working_days = EXCLUDED.non_working_days,
			updated_at = now()
	`, p.AgentID, p.Area, p.ScheduleDesc, p.HourlyRate, p.NonWorkingDays)
	return err
}
