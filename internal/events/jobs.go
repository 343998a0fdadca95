// Package events turns tracker webhook deliveries into durable background
// jobs and runs the engine entry points from them.
package events

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// AssignQueue serializes assignment jobs. It runs with a single worker so two
// concurrent item-created events cannot double-book an agent off the same
// capacity snapshot.
const AssignQueue = "assignment"

// ItemCreatedArgs is the payload of one item-created delivery.
type ItemCreatedArgs struct {
	EventID    uuid.UUID `json:"event_id"`
	ItemID     string    `json:"item_id"`
	ItemKey    string    `json:"item_key"`
	ProjectKey string    `json:"project_key"`
}

func (ItemCreatedArgs) Kind() string { return "item_created" }

func (ItemCreatedArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: AssignQueue}
}

// WorklogUpdatedArgs is the payload of one worklog-updated delivery.
type WorklogUpdatedArgs struct {
	EventID uuid.UUID `json:"event_id"`
	ItemID  string    `json:"item_id"`
}

func (WorklogUpdatedArgs) Kind() string { return "worklog_updated" }

// AssignmentService is the engine entry point for new items.
type AssignmentService interface {
	OnItemCreated(ctx context.Context, itemID, itemKey, projectKey string) error
}

// CostAccrual is the engine entry point for worklog updates.
type CostAccrual interface {
	OnWorklogUpdated(ctx context.Context, itemID string) error
}

// ItemCreatedWorker runs the assignment automation for one created item.
type ItemCreatedWorker struct {
	river.WorkerDefaults[ItemCreatedArgs]
	selector AssignmentService
	logger   *slog.Logger
}

func NewItemCreatedWorker(selector AssignmentService, logger *slog.Logger) *ItemCreatedWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemCreatedWorker{selector: selector, logger: logger}
}

func (w *ItemCreatedWorker) Work(ctx context.Context, job *river.Job[ItemCreatedArgs]) error {
	args := job.Args
	w.logger.Info("processing item-created event",
		"event_id", args.EventID, "item_key", args.ItemKey, "attempt", job.Attempt)
	// A returned error means a transient read failed; River retries the job.
	// Policy no-ops (no areas, no capacity) return nil inside the selector.
	return w.selector.OnItemCreated(ctx, args.ItemID, args.ItemKey, args.ProjectKey)
}

// WorklogUpdatedWorker recomputes labor cost after a worklog change.
type WorklogUpdatedWorker struct {
	river.WorkerDefaults[WorklogUpdatedArgs]
	cost   CostAccrual
	logger *slog.Logger
}

func NewWorklogUpdatedWorker(cost CostAccrual, logger *slog.Logger) *WorklogUpdatedWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorklogUpdatedWorker{cost: cost, logger: logger}
}

func (w *WorklogUpdatedWorker) Work(ctx context.Context, job *river.Job[WorklogUpdatedArgs]) error {
	args := job.Args
	w.logger.Info("processing worklog-updated event",
		"event_id", args.EventID, "item_id", args.ItemID, "attempt", job.Attempt)
	return w.cost.OnWorklogUpdated(ctx, args.ItemID)
}
