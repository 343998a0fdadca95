package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// AreaConfigService reads and writes the assignment-area configuration.
type AreaConfigService interface {
	Get(ctx context.Context) ([]string, error)
	Save(ctx context.Context, areas []string) error
}

// AreaHandler serves the /api/v1/areas endpoints.
type AreaHandler struct {
	Areas  AreaConfigService
	Logger *slog.Logger
}

type areaConfigPayload struct {
	Areas []string `json:"areas"`
}

func (h *AreaHandler) GetAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.Areas.Get(r.Context())
	if err != nil {
		h.Logger.Error("read area config failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, areaConfigPayload{Areas: areas})
}

func (h *AreaHandler) SaveAreas(w http.ResponseWriter, r *http.Request) {
	var req areaConfigPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Areas == nil {
		http.Error(w, `{"error":"areas is required"}`, http.StatusBadRequest)
		return
	}

	if err := h.Areas.Save(r.Context(), req.Areas); err != nil {
		h.Logger.Error("save area config failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, areaConfigPayload{Areas: req.Areas})
}
