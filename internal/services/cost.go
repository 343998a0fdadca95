package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/staffdesk/backend/internal/metrics"
	"github.com/staffdesk/backend/internal/models"
)

// CostingReader reads the assignee and total time spent of one item.
type CostingReader interface {
	GetItemCosting(ctx context.Context, itemID string) (assigneeID string, timeSpentSeconds int64, err error)
}

// FieldWriter writes a numeric custom field on the tracker.
type FieldWriter interface {
	SetNumberField(ctx context.Context, itemID, fieldID string, value float64) error
}

// ProfileGetter reads a single agent profile.
type ProfileGetter interface {
	Get(ctx context.Context, agentID string) (*models.Profile, error)
}

// CostService recomputes an item's labor cost whenever time is logged on it.
type CostService struct {
	Items       CostingReader
	Profiles    ProfileGetter
	Writer      FieldWriter
	CostFieldID string
	Logger      *slog.Logger
}

// NewCostService returns a cost accrual service over the given collaborators.
func NewCostService(items CostingReader, profiles ProfileGetter, writer FieldWriter, costFieldID string, logger *slog.Logger) *CostService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CostService{
		Items:       items,
		Profiles:    profiles,
		Writer:      writer,
		CostFieldID: costFieldID,
		Logger:      logger,
	}
}

// OnWorklogUpdated recomputes and republishes the item's labor cost from the
// assignee's hourly rate. Items without an assignee, and assignees without a
// configured (non-zero) rate, are skipped: a zero rate means "not set up",
// so a genuinely free agent cannot be represented here.
func (s *CostService) OnWorklogUpdated(ctx context.Context, itemID string) error {
	log := s.Logger.With("item_id", itemID)

	assigneeID, timeSpentSeconds, err := s.Items.GetItemCosting(ctx, itemID)
	if err != nil {
		return fmt.Errorf("read item costing: %w", err)
	}
	if assigneeID == "" {
		log.Info("item has no assignee, skipping cost accrual")
		metrics.CostWritesTotal.WithLabelValues("no_assignee").Inc()
		return nil
	}

	profile, err := s.Profiles.Get(ctx, assigneeID)
	if err != nil {
		return fmt.Errorf("read assignee profile: %w", err)
	}
	if profile == nil || profile.HourlyRate == 0 {
		log.Info("assignee has no hourly rate configured, skipping cost accrual",
			"agent_id", assigneeID)
		metrics.CostWritesTotal.WithLabelValues("no_rate").Inc()
		return nil
	}

	cost := float64(timeSpentSeconds) / 3600 * profile.HourlyRate

	if err := s.Writer.SetNumberField(ctx, itemID, s.CostFieldID, cost); err != nil {
		// Single attempt: the next worklog event recomputes from scratch.
		log.Warn("cost field update failed", "error", err)
		metrics.CostWritesTotal.WithLabelValues("write_failed").Inc()
		return nil
	}

	log.Info("labor cost updated",
		"agent_id", assigneeID, "time_spent_seconds", timeSpentSeconds,
		"hourly_rate", profile.HourlyRate, "cost", cost)
	metrics.CostWritesTotal.WithLabelValues("written").Inc()
	return nil
}
