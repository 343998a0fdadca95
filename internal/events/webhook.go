package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// InsertJobFunc enqueues one job. Provided by main as a closure over
// river.Client.Insert.
type InsertJobFunc func(ctx context.Context, args river.JobArgs) error

// WebhookHandler receives tracker webhook deliveries and converts them into
// queued jobs. The HTTP response only acknowledges receipt; all engine work
// happens in the job workers.
type WebhookHandler struct {
	Insert InsertJobFunc
	Logger *slog.Logger
}

func NewWebhookHandler(insert InsertJobFunc, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{Insert: insert, Logger: logger}
}

type webhookPayload struct {
	WebhookEvent string `json:"webhookEvent"`
	Issue        *struct {
		ID     string `json:"id"`
		Key    string `json:"key"`
		Fields struct {
			Project struct {
				Key string `json:"key"`
			} `json:"project"`
		} `json:"fields"`
	} `json:"issue"`
	Worklog *struct {
		IssueID string `json:"issueId"`
	} `json:"worklog"`
}

// ServeHTTP handles POST deliveries from the tracker.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	eventID := uuid.New()
	log := h.Logger.With("event_id", eventID, "webhook_event", payload.WebhookEvent)

	var args river.JobArgs
	switch {
	case strings.HasSuffix(payload.WebhookEvent, "issue_created"):
		if payload.Issue == nil || payload.Issue.ID == "" {
			http.Error(w, `{"error":"missing issue"}`, http.StatusBadRequest)
			return
		}
		args = ItemCreatedArgs{
			EventID:    eventID,
			ItemID:     payload.Issue.ID,
			ItemKey:    payload.Issue.Key,
			ProjectKey: payload.Issue.Fields.Project.Key,
		}
	case strings.HasPrefix(payload.WebhookEvent, "worklog_"):
		if payload.Worklog == nil || payload.Worklog.IssueID == "" {
			http.Error(w, `{"error":"missing worklog"}`, http.StatusBadRequest)
			return
		}
		args = WorklogUpdatedArgs{EventID: eventID, ItemID: payload.Worklog.IssueID}
	default:
		// Unknown events are acknowledged and dropped so the tracker does not
		// retry them forever.
		log.Info("ignoring unhandled webhook event")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.Insert(r.Context(), args); err != nil {
		log.Error("enqueue webhook job failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	log.Info("webhook event queued")
	w.WriteHeader(http.StatusAccepted)
}
