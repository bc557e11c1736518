package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"partshub-api/internal/repository"
	"partshub-api/internal/service"
	"partshub-api/pkg/apierror"
	"partshub-api/pkg/response"
)

// maxImportSize caps uploaded CSV files at 50 MB.
const maxImportSize = 50 << 20

// ImportHandler serves CSV inventory imports.
type ImportHandler struct {
	importer *service.Importer
	ledger   repository.LedgerRepository
}

// NewImportHandler creates a new import handler.
func NewImportHandler(importer *service.Importer, ledger repository.LedgerRepository) *ImportHandler {
	return &ImportHandler{importer: importer, ledger: ledger}
}

// Upload handles POST /api/v1/imports
//
// Accepts a multipart form with a "file" field holding the CSV. The
// import runs to completion before responding; large files are tracked
// through the returned batch id while in flight.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		response.Error(w, apierror.BadRequest("invalid multipart form or file too large"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, apierror.BadRequest("missing file field"))
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" && ext != ".txt" {
		response.Error(w, apierror.BadRequest("only .csv files are accepted"))
		return
	}

	batch, err := h.importer.Import(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, batch)
}

// GetBatch handles GET /api/v1/imports/{id}
func (h *ImportHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, apierror.BadRequest("batch id is required"))
		return
	}

	batch, err := h.ledger.GetImportBatch(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	if batch == nil {
		response.Error(w, apierror.NotFound("import batch not found"))
		return
	}
	response.OK(w, batch)
}
