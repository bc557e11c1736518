package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"partshub-api/internal/model"
	"partshub-api/internal/repository"
	"partshub-api/internal/service"
	"partshub-api/pkg/apierror"
	"partshub-api/pkg/response"
)

// SyncHandler exposes catalog synchronization operations over HTTP.
type SyncHandler struct {
	orchestrator *service.Orchestrator
	ledger       repository.LedgerRepository
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(orchestrator *service.Orchestrator, ledger repository.LedgerRepository) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator, ledger: ledger}
}

// StartFull handles POST /api/v1/sync/full
//
// The sync runs in the background; clients poll GET /sync/status for
// progress. Returns 409 when another sync run is already active.
func (h *SyncHandler) StartFull(w http.ResponseWriter, r *http.Request) {
	h.start(w, model.SyncTypeFull)
}

// StartIncremental handles POST /api/v1/sync/incremental
func (h *SyncHandler) StartIncremental(w http.ResponseWriter, r *http.Request) {
	h.start(w, model.SyncTypeIncremental)
}

// start launches the sync in the background. The running-flag check is
// the first thing the orchestrator does, so a conflict error arrives on
// the channel immediately; otherwise the run outlives the request.
func (h *SyncHandler) start(w http.ResponseWriter, syncType string) {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if syncType == model.SyncTypeFull {
			_, err = h.orchestrator.PerformFullSync(context.Background())
		} else {
			_, err = h.orchestrator.PerformIncrementalSync(context.Background())
		}
		if err != nil && !errors.Is(err, service.ErrSyncInProgress) {
			log.Printf("[SyncHandler] %s sync failed to start: %v", syncType, err)
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, service.ErrSyncInProgress) {
			response.Error(w, apierror.Conflict("a sync is already in progress"))
			return
		}
	case <-time.After(50 * time.Millisecond):
	}

	response.Accepted(w, map[string]string{
		"message":   "sync started",
		"sync_type": syncType,
	})
}

// GetStatus handles GET /api/v1/sync/status
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.orchestrator.Status())
}

// Cancel handles POST /api/v1/sync/cancel
func (h *SyncHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.orchestrator.CancelSync()
	response.OK(w, map[string]string{"message": "sync cancellation requested"})
}

type requestUpdateBody struct {
	VCPN      string `json:"vcpn"`
	Operation string `json:"operation"`
	Priority  int    `json:"priority"`
}

// RequestUpdate handles POST /api/v1/sync/request-update
//
// Queues a single part for refresh on the next incremental run.
func (h *SyncHandler) RequestUpdate(w http.ResponseWriter, r *http.Request) {
	var body requestUpdateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	if body.VCPN == "" {
		response.Error(w, apierror.BadRequest("vcpn is required"))
		return
	}
	if body.Operation == "" {
		body.Operation = model.PendingOpUpdate
	}

	if err := h.orchestrator.RequestPartUpdate(r.Context(), body.VCPN, body.Operation, body.Priority); err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, map[string]string{
		"message": "part update queued",
		"vcpn":    body.VCPN,
	})
}

// ListLogs handles GET /api/v1/sync/logs?limit=20
func (h *SyncHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			response.Error(w, apierror.BadRequest("limit must be between 1 and 200"))
			return
		}
		limit = parsed
	}

	logs, err := h.ledger.ListSyncResults(r.Context(), limit)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, logs)
}
