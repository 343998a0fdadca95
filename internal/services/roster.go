package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/staffdesk/backend/internal/metrics"
	"github.com/staffdesk/backend/internal/models"
	"github.com/staffdesk/backend/internal/schedule"
)

// IdentityDirectory lists the tenant's active human accounts.
type IdentityDirectory interface {
	ListActiveAgents(ctx context.Context) ([]models.Identity, error)
}

// ProfileSource is the minimal profile-store read interface the roster needs.
type ProfileSource interface {
	GetAll(ctx context.Context) (map[string]*models.Profile, error)
}

// OpenItemSource queries the project's unresolved work items.
type OpenItemSource interface {
	SearchOpenItems(ctx context.Context, projectKey string) ([]models.WorkItem, error)
}

// RosterBuilder merges identities, stored profiles, and open-item load into a
// ranked sequence of agent snapshots. Every build starts from scratch; there
// is no cached copy to go stale.
type RosterBuilder struct {
	Directory IdentityDirectory
	Profiles  ProfileSource
	Items     OpenItemSource
	Logger    *slog.Logger

	now func() time.Time
}

// NewRosterBuilder returns a roster builder over the given collaborators.
func NewRosterBuilder(dir IdentityDirectory, profiles ProfileSource, items OpenItemSource, logger *slog.Logger) *RosterBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterBuilder{
		Directory: dir,
		Profiles:  profiles,
		Items:     items,
		Logger:    logger,
		now:       time.Now,
	}
}

// BuildRoster returns the project's agents sorted by availability descending.
// Any external read failure aborts the whole build: callers get an error and
// must treat it as "roster unknown", never as "zero agents exist". Assigning
// work off incomplete capacity data is worse than assigning nothing.
func (b *RosterBuilder) BuildRoster(ctx context.Context, projectKey string) ([]models.Agent, error) {
	started := b.now()

	identities, err := b.Directory.ListActiveAgents(ctx)
	if err != nil {
		metrics.RosterBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list active agents: %w", err)
	}

	profiles, err := b.Profiles.GetAll(ctx)
	if err != nil {
		metrics.RosterBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load agent profiles: %w", err)
	}

	items, err := b.Items.SearchOpenItems(ctx, projectKey)
	if err != nil {
		metrics.RosterBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search open items: %w", err)
	}

	loadSeconds := make(map[string]int64)
	for _, item := range items {
		if item.AssigneeID != "" {
			loadSeconds[item.AssigneeID] += item.EstimateSeconds
		}
	}

	ref := b.now()
	roster := make([]models.Agent, 0, len(identities))
	for _, id := range identities {
		profile := profiles[id.ID]
		if profile == nil {
			profile = models.DefaultProfile(id.ID)
		}

		capacity := schedule.WeeklyCapacity(profile.ScheduleDesc, profile.NonWorkingDays, ref)
		load := float64(loadSeconds[id.ID]) / 3600

		roster = append(roster, models.Agent{
			ID:             id.ID,
			DisplayName:    id.DisplayName,
			Area:           profile.Area,
			ScheduleDesc:   profile.ScheduleDesc,
			HourlyRate:     profile.HourlyRate,
			NonWorkingDays: profile.NonWorkingDays,
			CapacityHours:  capacity,
			LoadHours:      load,
			Availability:   availabilityPct(capacity, load),
		})
	}

	// Stable: agents with equal availability keep their directory order.
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].Availability > roster[j].Availability
	})

	metrics.RosterBuildsTotal.WithLabelValues("ok").Inc()
	metrics.RosterAgents.Set(float64(len(roster)))
	metrics.RosterBuildSeconds.Observe(b.now().Sub(started).Seconds())

	return roster, nil
}

// availabilityPct is 100 minus the share of weekly capacity already consumed,
// clamped to [0, 100]. Zero capacity reads as fully available so that agents
// without a configured schedule still surface in the ranking.
func availabilityPct(capacityHours, loadHours float64) float64 {
	if capacityHours <= 0 {
		return 100
	}
	pct := 100 - (loadHours/capacityHours)*100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
