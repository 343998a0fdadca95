package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/staffdesk/backend/internal/models"
)

// Availability below this percentage shows the agent as unavailable.
const unavailableThresholdPct = 5

// RosterService builds the ranked roster served to the UI.
type RosterService interface {
	BuildRoster(ctx context.Context, projectKey string) ([]models.Agent, error)
}

// AssignedItemSource lists an agent's open items.
type AssignedItemSource interface {
	SearchAssignedOpenItems(ctx context.Context, projectKey, agentID string) ([]models.WorkItem, error)
}

// ProfileEditor is the profile-write surface the UI uses.
type ProfileEditor interface {
	Save(ctx context.Context, agentID, area, scheduleDesc string, hourlyRate float64, nonWorkingDays []string) (*models.Profile, error)
	AddNonWorkingDay(ctx context.Context, agentID, date string) ([]string, error)
	RemoveNonWorkingDay(ctx context.Context, agentID, date string) ([]string, error)
}

// AgentHandler serves the /api/v1/agents endpoints.
type AgentHandler struct {
	Roster     RosterService
	Items      AssignedItemSource
	Profiles   ProfileEditor
	ProjectKey string
	Logger     *slog.Logger
}

// --- GET /api/v1/agents ---

type agentResponse struct {
	models.Agent
	AvailabilityLabel string `json:"availability"`
	Status            string `json:"status"`
}

// ListAgents returns the ranked roster with presentation fields. A failed
// roster build answers with an empty list: the UI must read it as "no data",
// and the failure itself is logged and counted server side.
func (h *AgentHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	roster, err := h.Roster.BuildRoster(r.Context(), h.ProjectKey)
	if err != nil {
		h.Logger.Error("roster build failed", "error", err)
		writeJSON(w, http.StatusOK, []agentResponse{})
		return
	}

	out := make([]agentResponse, 0, len(roster))
	for _, ag := range roster {
		status := "available"
		if ag.Availability < unavailableThresholdPct {
			status = "unavailable"
		}
		out = append(out, agentResponse{
			Agent:             ag,
			AvailabilityLabel: formatPct(ag.Availability),
			Status:            status,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- GET /api/v1/agents/{id}/items ---

type assignedItemResponse struct {
	Key             string `json:"key"`
	Summary         string `json:"summary"`
	EstimateSeconds int64  `json:"estimate_seconds"`
}

func (h *AgentHandler) ListAgentItems(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("id")
	if agentID == "" {
		http.Error(w, `{"error":"agent id is required"}`, http.StatusBadRequest)
		return
	}

	items, err := h.Items.SearchAssignedOpenItems(r.Context(), h.ProjectKey, agentID)
	if err != nil {
		h.Logger.Error("list agent items failed", "agent_id", agentID, "error", err)
		writeJSON(w, http.StatusOK, []assignedItemResponse{})
		return
	}

	out := make([]assignedItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, assignedItemResponse{
			Key:             item.Key,
			Summary:         item.Summary,
			EstimateSeconds: item.EstimateSeconds,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- PUT /api/v1/agents/{id}/profile ---

type saveProfileRequest struct {
	Area           string   `json:"area"`
	ScheduleDesc   string   `json:"schedule_desc"`
	HourlyRate     float64  `json:"hourly_rate"`
	NonWorkingDays []string `json:"non_working_days"`
}

func (h *AgentHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("id")
	if agentID == "" {
		http.Error(w, `{"error":"agent id is required"}`, http.StatusBadRequest)
		return
	}

	var req saveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	profile, err := h.Profiles.Save(r.Context(), agentID, req.Area, req.ScheduleDesc, req.HourlyRate, req.NonWorkingDays)
	if err != nil {
		h.Logger.Error("save profile failed", "agent_id", agentID, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// --- POST/DELETE /api/v1/agents/{id}/non-working-days ---

type nonWorkingDayRequest struct {
	Date string `json:"date"`
}

type nonWorkingDayResponse struct {
	NonWorkingDays []string `json:"non_working_days"`
}

func (h *AgentHandler) AddNonWorkingDay(w http.ResponseWriter, r *http.Request) {
	h.mutateNonWorkingDays(w, r, h.Profiles.AddNonWorkingDay)
}

func (h *AgentHandler) RemoveNonWorkingDay(w http.ResponseWriter, r *http.Request) {
	h.mutateNonWorkingDays(w, r, h.Profiles.RemoveNonWorkingDay)
}

func (h *AgentHandler) mutateNonWorkingDays(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string) ([]string, error)) {
	agentID := r.PathValue("id")
	if agentID == "" {
		http.Error(w, `{"error":"agent id is required"}`, http.StatusBadRequest)
		return
	}

	var req nonWorkingDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Date == "" {
		http.Error(w, `{"error":"date is required"}`, http.StatusBadRequest)
		return
	}

	days, err := op(r.Context(), agentID, req.Date)
	if err != nil {
		h.Logger.Error("non-working day update failed", "agent_id", agentID, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, nonWorkingDayResponse{NonWorkingDays: days})
}

// --- helpers ---

func formatPct(pct float64) string {
	return strconv.Itoa(int(math.Round(pct))) + "%"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
