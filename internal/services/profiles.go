package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/staffdesk/backend/internal/models"
)

// ProfileStore is the read/write profile-store interface.
type ProfileStore interface {
	Get(ctx context.Context, agentID string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
}

// ProfileService owns profile writes: full detail saves and the incremental
// non-working-day set operations.
type ProfileService struct {
	Store  ProfileStore
	Logger *slog.Logger
}

// NewProfileService returns a profile service over the given store.
func NewProfileService(store ProfileStore, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{Store: store, Logger: logger}
}

// Save upserts the full profile. First save creates the row; the non-working
// day set is normalized (deduplicated, sorted) on the way in.
func (s *ProfileService) Save(ctx context.Context, agentID, area, scheduleDesc string, hourlyRate float64, nonWorkingDays []string) (*models.Profile, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	if hourlyRate < 0 {
		return nil, fmt.Errorf("hourly rate must be >= 0")
	}
	if area == "" {
		area = models.DefaultArea
	}
	days, err := normalizeDates(nonWorkingDays)
	if err != nil {
		return nil, err
	}

	p := &models.Profile{
		AgentID:        agentID,
		Area:           area,
		ScheduleDesc:   scheduleDesc,
		HourlyRate:     hourlyRate,
		NonWorkingDays: days,
	}
	if err := s.Store.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.Logger.Info("agent profile saved", "agent_id", agentID, "area", area)
	return p, nil
}

// AddNonWorkingDay adds one date to the agent's exception set (set union) and
// returns the updated, sorted set. Adding a present date is a no-op.
func (s *ProfileService) AddNonWorkingDay(ctx context.Context, agentID, date string) ([]string, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	profile, err := s.load(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(profile.NonWorkingDays, date) {
		profile.NonWorkingDays = append(profile.NonWorkingDays, date)
		slices.Sort(profile.NonWorkingDays)
	}
	if err := s.Store.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("save non-working days: %w", err)
	}
	return profile.NonWorkingDays, nil
}

// RemoveNonWorkingDay removes one date from the agent's exception set (set
// difference) and returns the updated set. Removing an absent date is a no-op.
func (s *ProfileService) RemoveNonWorkingDay(ctx context.Context, agentID, date string) ([]string, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	profile, err := s.load(ctx, agentID)
	if err != nil {
		return nil, err
	}
	kept := profile.NonWorkingDays[:0]
	for _, d := range profile.NonWorkingDays {
		if d != date {
			kept = append(kept, d)
		}
	}
	profile.NonWorkingDays = kept
	if err := s.Store.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("save non-working days: %w", err)
	}
	return profile.NonWorkingDays, nil
}

// load returns the stored profile or the defaults for an agent with no row,
// so the set operations have upsert semantics.
func (s *ProfileService) load(ctx context.Context, agentID string) (*models.Profile, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	profile, err := s.Store.Get(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		profile = models.DefaultProfile(agentID)
	}
	return profile, nil
}

func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}
	return nil
}

func normalizeDates(dates []string) ([]string, error) {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if err := validateDate(d); err != nil {
			return nil, err
		}
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return out, nil
}
