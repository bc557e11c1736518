package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"partshub-api/internal/repository"
	"partshub-api/pkg/apierror"
	"partshub-api/pkg/response"
)

// InventoryHandler serves the cached inventory over HTTP.
type InventoryHandler struct {
	repo repository.InventoryRepository
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(repo repository.InventoryRepository) *InventoryHandler {
	return &InventoryHandler{repo: repo}
}

// List handles GET /api/v1/inventory?page=1&limit=50
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	limit := 50

	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.Error(w, apierror.BadRequest("page must be a positive integer"))
			return
		}
		page = parsed
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			response.Error(w, apierror.BadRequest("limit must be between 1 and 200"))
			return
		}
		limit = parsed
	}

	items, total, err := h.repo.List(r.Context(), limit, (page-1)*limit)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, items, page, limit, total)
}

// Get handles GET /api/v1/inventory/{vcpn}
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	vcpn := chi.URLParam(r, "vcpn")
	if vcpn == "" {
		response.Error(w, apierror.BadRequest("vcpn is required"))
		return
	}

	item, err := h.repo.GetBySKUOrVCPN(r.Context(), vcpn)
	if err != nil {
		response.Error(w, err)
		return
	}
	if item == nil {
		response.Error(w, apierror.NotFound("inventory item not found"))
		return
	}
	response.OK(w, item)
}

// Delete handles DELETE /api/v1/inventory/{vcpn}
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vcpn := chi.URLParam(r, "vcpn")
	if vcpn == "" {
		response.Error(w, apierror.BadRequest("vcpn is required"))
		return
	}

	item, err := h.repo.GetBySKUOrVCPN(r.Context(), vcpn)
	if err != nil {
		response.Error(w, err)
		return
	}
	if item == nil {
		response.Error(w, apierror.NotFound("inventory item not found"))
		return
	}

	if err := h.repo.Delete(r.Context(), item.NaturalKey()); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

// Stats handles GET /api/v1/inventory/stats
func (h *InventoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, stats)
}
