package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/staffdesk/backend/internal/tracker"
)

// AreaStore persists the configured assignment areas.
type AreaStore interface {
	Get(ctx context.Context) ([]string, error)
	Set(ctx context.Context, areas []string) error
}

// FieldOptionSyncer is the tracker surface needed to mirror area names into
// the tracker's custom-field options.
type FieldOptionSyncer interface {
	GetProjectID(ctx context.Context, projectKey string) (string, error)
	ListFieldContexts(ctx context.Context, fieldID string) ([]tracker.FieldContext, error)
	ListContextOptions(ctx context.Context, fieldID, contextID string) ([]string, error)
	AddContextOption(ctx context.Context, fieldID, contextID, value string) error
}

// AreaService owns the assignment-area configuration. Saving it also pushes
// any new area names into the tracker's area field so that new work items can
// carry them; the push is best effort and never fails the save.
type AreaService struct {
	Store       AreaStore
	Tracker     FieldOptionSyncer
	AreaFieldID string
	ProjectKey  string
	Logger      *slog.Logger
}

// NewAreaService returns an area configuration service.
func NewAreaService(store AreaStore, tr FieldOptionSyncer, areaFieldID, projectKey string, logger *slog.Logger) *AreaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AreaService{
		Store:       store,
		Tracker:     tr,
		AreaFieldID: areaFieldID,
		ProjectKey:  projectKey,
		Logger:      logger,
	}
}

// Get returns the configured area names.
func (s *AreaService) Get(ctx context.Context) ([]string, error) {
	return s.Store.Get(ctx)
}

// Save replaces the configured areas and syncs new names into the tracker's
// field options. A sync failure is logged and swallowed: the stored config is
// already durable and the sync re-runs on the next save.
func (s *AreaService) Save(ctx context.Context, areas []string) error {
	if err := s.Store.Set(ctx, areas); err != nil {
		return fmt.Errorf("save area config: %w", err)
	}
	if err := s.syncFieldOptions(ctx, areas); err != nil {
		s.Logger.Warn("area option sync with tracker failed", "error", err)
	}
	return nil
}

// syncFieldOptions adds missing option values to the area field's context.
// The project-scoped context wins over the global one when both exist.
func (s *AreaService) syncFieldOptions(ctx context.Context, areas []string) error {
	projectID, err := s.Tracker.GetProjectID(ctx, s.ProjectKey)
	if err != nil {
		return fmt.Errorf("resolve project id: %w", err)
	}

	contexts, err := s.Tracker.ListFieldContexts(ctx, s.AreaFieldID)
	if err != nil {
		return fmt.Errorf("list field contexts: %w", err)
	}

	targetID := ""
	for _, fc := range contexts {
		if slices.Contains(fc.ProjectIDs, projectID) {
			targetID = fc.ID
			break
		}
	}
	if targetID == "" {
		for _, fc := range contexts {
			if fc.IsGlobalContext {
				targetID = fc.ID
				break
			}
		}
	}
	if targetID == "" {
		return fmt.Errorf("no applicable context for field %s in project %s", s.AreaFieldID, s.ProjectKey)
	}

	existing, err := s.Tracker.ListContextOptions(ctx, s.AreaFieldID, targetID)
	if err != nil {
		return fmt.Errorf("list context options: %w", err)
	}

	for _, area := range areas {
		if slices.Contains(existing, area) {
			continue
		}
		if err := s.Tracker.AddContextOption(ctx, s.AreaFieldID, targetID, area); err != nil {
			return fmt.Errorf("add option %q: %w", area, err)
		}
		s.Logger.Info("area option added to tracker field", "area", area, "context_id", targetID)
	}
	return nil
}
