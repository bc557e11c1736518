package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"partshub-api/internal/keystone"
	"partshub-api/internal/service"
	"partshub-api/pkg/apierror"
	"partshub-api/pkg/response"
)

// PriceCheckHandler serves rate-limited bulk price lookups.
type PriceCheckHandler struct {
	svc *service.PriceCheckService
}

// NewPriceCheckHandler creates a new price check handler.
func NewPriceCheckHandler(svc *service.PriceCheckService) *PriceCheckHandler {
	return &PriceCheckHandler{svc: svc}
}

type priceCheckBody struct {
	VCPNs               []string `json:"vcpns"`
	IncludeAvailability bool     `json:"include_availability"`
}

// Check handles POST /api/v1/pricing/check
//
// A rate-limited call returns 200 with is_rate_limited set so the UI can
// render a countdown rather than treating the cooldown as a failure.
func (h *PriceCheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	var body priceCheckBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}

	result, err := h.svc.CheckPrices(r.Context(), body.VCPNs, body.IncludeAvailability)
	if err != nil {
		if errors.Is(err, keystone.ErrTooManyVCPNs) {
			response.Error(w, apierror.BadRequest(
				fmt.Sprintf("at most %d VCPNs per price check", keystone.MaxBulkPricingVCPNs)))
			return
		}
		var apiErr *keystone.APIError
		if errors.As(err, &apiErr) {
			response.Error(w, apierror.ServiceUnavailable("price lookup failed upstream"))
			return
		}
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}

	response.OK(w, result)
}

// History handles GET /api/v1/pricing/history
func (h *PriceCheckHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, entries)
}
