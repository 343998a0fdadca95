package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/staffdesk/backend/internal/metrics"
	"github.com/staffdesk/backend/internal/models"
)

// RosterSource builds a fresh ranked roster for a project.
type RosterSource interface {
	BuildRoster(ctx context.Context, projectKey string) ([]models.Agent, error)
}

// AreaReader reads the required-area values of one work item.
type AreaReader interface {
	GetItemAreas(ctx context.Context, itemID, areaFieldID string) ([]string, error)
}

// EffortSource resolves the SLA-derived effort a work item is expected to
// consume, in hours. 0 means unavailable.
type EffortSource interface {
	GetRequiredEffortHours(ctx context.Context, itemID string) (float64, error)
}

// AssigneeWriter commits an assignment on the tracker.
type AssigneeWriter interface {
	SetAssignee(ctx context.Context, itemID, agentID string) error
}

// Selector picks one agent for a new work item: first fit over the
// availability-descending roster, constrained to the item's required areas
// and to agents with enough remaining weekly capacity.
type Selector struct {
	Roster      RosterSource
	Areas       AreaReader
	Effort      EffortSource
	Writer      AssigneeWriter
	AreaFieldID string
	Logger      *slog.Logger
}

// NewSelector returns an assignment selector over the given collaborators.
func NewSelector(roster RosterSource, areas AreaReader, effort EffortSource, writer AssigneeWriter, areaFieldID string, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		Roster:      roster,
		Areas:       areas,
		Effort:      effort,
		Writer:      writer,
		AreaFieldID: areaFieldID,
		Logger:      logger,
	}
}

// OnItemCreated runs the assignment automation for a newly created item.
// Every non-assignment outcome (no required areas, no eligible agents, no
// remaining capacity, all mutations failed) is a normal result: the item is
// left for manual triage and nil is returned. Only transient read failures
// surface as errors so the job layer can retry them.
func (s *Selector) OnItemCreated(ctx context.Context, itemID, itemKey, projectKey string) error {
	log := s.Logger.With("item_id", itemID, "item_key", itemKey)

	requiredAreas, err := s.Areas.GetItemAreas(ctx, itemID, s.AreaFieldID)
	if err != nil {
		return fmt.Errorf("read required areas: %w", err)
	}
	if len(requiredAreas) == 0 {
		log.Info("item has no assignment area, skipping automation")
		metrics.AssignmentsTotal.WithLabelValues("no_areas").Inc()
		return nil
	}

	roster, err := s.Roster.BuildRoster(ctx, projectKey)
	if err != nil {
		metrics.AssignmentsTotal.WithLabelValues("roster_unavailable").Inc()
		return fmt.Errorf("build roster: %w", err)
	}
	if len(roster) == 0 {
		log.Info("no agents in roster, skipping automation")
		metrics.AssignmentsTotal.WithLabelValues("no_eligible_agents").Inc()
		return nil
	}

	// Roster order is availability-descending already; filtering preserves it.
	eligible := make([]models.Agent, 0, len(roster))
	for _, ag := range roster {
		if slices.Contains(requiredAreas, ag.Area) {
			eligible = append(eligible, ag)
		}
	}
	if len(eligible) == 0 {
		log.Info("no agents in any required area", "required_areas", requiredAreas)
		metrics.AssignmentsTotal.WithLabelValues("no_eligible_agents").Inc()
		return nil
	}

	requiredHours, err := s.Effort.GetRequiredEffortHours(ctx, itemID)
	if err != nil {
		// SLA data is optional; without it any agent with spare capacity fits.
		log.Warn("sla lookup failed, treating required effort as 0", "error", err)
		requiredHours = 0
	}

	for _, ag := range eligible {
		remaining := ag.RemainingHours()
		if remaining < requiredHours {
			log.Debug("candidate lacks capacity",
				"agent_id", ag.ID, "remaining_hours", remaining, "required_hours", requiredHours)
			continue
		}
		if err := s.Writer.SetAssignee(ctx, itemID, ag.ID); err != nil {
			// Non-fatal: keep scanning the remaining candidates.
			log.Warn("assignment mutation failed, trying next candidate",
				"agent_id", ag.ID, "error", err)
			metrics.AssignmentSkipsTotal.Inc()
			continue
		}
		log.Info("item assigned",
			"agent_id", ag.ID, "agent", ag.DisplayName,
			"availability_pct", ag.Availability, "required_hours", requiredHours)
		metrics.AssignmentsTotal.WithLabelValues("assigned").Inc()
		return nil
	}

	log.Info("no agent with sufficient capacity, leaving item unassigned",
		"required_hours", requiredHours, "eligible", len(eligible))
	metrics.AssignmentsTotal.WithLabelValues("no_capacity").Inc()
	return nil
}
