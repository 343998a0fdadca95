package router

import (
	"net/http"

	"github.com/staffdesk/backend/internal/events"
	"github.com/staffdesk/backend/internal/handlers"
)

// New returns the http.Handler serving the presentation API under /api/v1
// plus the tracker webhook receiver.
func New(agentHandler *handlers.AgentHandler, areaHandler *handlers.AreaHandler, webhook *events.WebhookHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/agents", agentHandler.ListAgents)
	mux.HandleFunc("GET /api/v1/agents/{id}/items", agentHandler.ListAgentItems)
	mux.HandleFunc("PUT /api/v1/agents/{id}/profile", agentHandler.SaveProfile)
	mux.HandleFunc("POST /api/v1/agents/{id}/non-working-days", agentHandler.AddNonWorkingDay)
	mux.HandleFunc("DELETE /api/v1/agents/{id}/non-working-days", agentHandler.RemoveNonWorkingDay)

	mux.HandleFunc("GET /api/v1/areas", areaHandler.GetAreas)
	mux.HandleFunc("PUT /api/v1/areas", areaHandler.SaveAreas)

	mux.Handle("POST /api/v1/webhooks/tracker", webhook)

	return mux
}
