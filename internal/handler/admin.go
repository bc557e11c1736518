package handler

import (
	"net/http"
	"time"

	"partshub-api/internal/repository"
	"partshub-api/internal/service"
	"partshub-api/pkg/response"
)

// AdminHandler serves operational views for the admin dashboard.
type AdminHandler struct {
	repo         repository.InventoryRepository
	orchestrator *service.Orchestrator
	backend      string
}

// NewAdminHandler creates a new admin handler. backend names the active
// cache store driver for display.
func NewAdminHandler(repo repository.InventoryRepository, orchestrator *service.Orchestrator, backend string) *AdminHandler {
	return &AdminHandler{repo: repo, orchestrator: orchestrator, backend: backend}
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	inventory, err := h.repo.GetStats(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"backend":        h.backend,
		"inventory":      inventory,
		"sync":           h.orchestrator.Status(),
		"uptime_seconds": int64(time.Since(StartTime).Seconds()),
	})
}
