package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"partshub-api/internal/model"
	"partshub-api/internal/service"
	"partshub-api/pkg/apierror"
	"partshub-api/pkg/response"
)

// DropshipHandler serves dropship order placement.
type DropshipHandler struct {
	svc *service.DropshipService
}

// NewDropshipHandler creates a new dropship handler.
func NewDropshipHandler(svc *service.DropshipService) *DropshipHandler {
	return &DropshipHandler{svc: svc}
}

// PlaceOrder handles POST /api/v1/orders/dropship
func (h *DropshipHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req model.DropshipOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}

	result, err := h.svc.PlaceOrder(r.Context(), &req)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			response.Error(w, apierror.ValidationError(vErr.Error(),
				apierror.FieldError{Field: vErr.Field, Message: "required"}))
			return
		}
		response.Error(w, err)
		return
	}

	if result.IsRateLimited {
		// 429 for orders: unlike price checks, a blocked order must not
		// look like a success to the order form.
		response.Error(w, apierror.RateLimited(result.RateLimitMessage))
		return
	}

	response.Created(w, result)
}
