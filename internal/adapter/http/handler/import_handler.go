package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankfeed/internal/adapter/http/dto"
	"github.com/iho/bankfeed/internal/usecase"
)

// DownloadService defines the download behavior needed by ImportHandler.
type DownloadService interface {
	Download(ctx context.Context, input usecase.DownloadInput) (*usecase.DownloadResult, error)
}

// ImportService defines the import behavior needed by ImportHandler.
type ImportService interface {
	Import(ctx context.Context, input usecase.ImportInput) (*usecase.ImportResult, error)
}

// SyncService defines the sync behavior needed by ImportHandler.
type SyncService interface {
	Sync(ctx context.Context, accountID string) (*usecase.SyncResult, error)
}

// ImportHandler handles snapshot download and import HTTP requests.
type ImportHandler struct {
	downloadUC DownloadService
	importUC   ImportService
	syncUC     SyncService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(downloadUC DownloadService, importUC ImportService, syncUC SyncService) *ImportHandler {
	return &ImportHandler{
		downloadUC: downloadUC,
		importUC:   importUC,
		syncUC:     syncUC,
	}
}

// Download fetches an account's feed state and writes a snapshot file.
// Pagination controls come from the JSON body, or from query parameters
// when the body is empty.
func (h *ImportHandler) Download(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		req.Count = parseIntQuery(r, "count", 0)
		req.FromID = r.URL.Query().Get("from_id")
	}

	result, err := h.downloadUC.Download(r.Context(), req.ToUseCaseInput(accountID))
	if err != nil {
		writeDomainError(w, err, "failed to download snapshot")
		return
	}

	writeJSON(w, http.StatusCreated, dto.DownloadFromResult(result))
}

// Import transforms a snapshot file into ledger entries.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req dto.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "missing snapshot path", "")
		return
	}

	result, err := h.importUC.Import(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to import snapshot")
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportFromResult(result))
}

// Sync downloads and imports an account in one call.
func (h *ImportHandler) Sync(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	result, err := h.syncUC.Sync(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err, "failed to sync account")
		return
	}

	writeJSON(w, http.StatusOK, dto.SyncFromResult(result))
}
