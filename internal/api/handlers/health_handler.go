package handlers

import (
	"net/http"

	"github.com/courtsite/attribution/internal/api/response"
)

// HealthHandler reports service liveness.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check responds 200 when the process is serving
// Route: GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
