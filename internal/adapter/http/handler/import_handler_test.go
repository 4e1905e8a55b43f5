package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/bankfeed/internal/adapter/http/dto"
	"github.com/iho/bankfeed/internal/domain"
	"github.com/iho/bankfeed/internal/usecase"
)

type downloadServiceStub struct {
	downloadFn func(ctx context.Context, input usecase.DownloadInput) (*usecase.DownloadResult, error)
}

func (s *downloadServiceStub) Download(ctx context.Context, input usecase.DownloadInput) (*usecase.DownloadResult, error) {
	return s.downloadFn(ctx, input)
}

type importServiceStub struct {
	importFn func(ctx context.Context, input usecase.ImportInput) (*usecase.ImportResult, error)
}

func (s *importServiceStub) Import(ctx context.Context, input usecase.ImportInput) (*usecase.ImportResult, error) {
	return s.importFn(ctx, input)
}

type syncServiceStub struct {
	syncFn func(ctx context.Context, accountID string) (*usecase.SyncResult, error)
}

func (s *syncServiceStub) Sync(ctx context.Context, accountID string) (*usecase.SyncResult, error) {
	return s.syncFn(ctx, accountID)
}

func newImportHandler(
	downloadFn func(ctx context.Context, input usecase.DownloadInput) (*usecase.DownloadResult, error),
	importFn func(ctx context.Context, input usecase.ImportInput) (*usecase.ImportResult, error),
	syncFn func(ctx context.Context, accountID string) (*usecase.SyncResult, error),
) *ImportHandler {
	return NewImportHandler(
		&downloadServiceStub{downloadFn: downloadFn},
		&importServiceStub{importFn: importFn},
		&syncServiceStub{syncFn: syncFn},
	)
}

func noDownload(t *testing.T) func(ctx context.Context, input usecase.DownloadInput) (*usecase.DownloadResult, error) {
	return func(ctx context.Context, input usecase.DownloadInput) (*usecase.DownloadResult, error) {
		t.Fatal("Download should not be called")
		return nil, nil
	}
}

func noImport(t *testing.T) func(ctx context.Context, input usecase.ImportInput) (*usecase.ImportResult, error) {
	return func(ctx context.Context, input usecase.ImportInput) (*usecase.ImportResult, error) {
		t.Fatal("Import should not be called")
		return nil, nil
	}
}

func noSync(t *testing.T) func(ctx context.Context, accountID string) (*usecase.SyncResult, error) {
	return func(ctx context.Context, accountID string) (*usecase.SyncResult, error) {
		t.Fatal("Sync should not be called")
		return nil, nil
	}
}

func TestImportHandler_Download(t *testing.T) {
	var captured usecase.DownloadInput
	handler := newImportHandler(
		func(ctx context.Context, input usecase.DownloadInput) (*usecase.DownloadResult, error) {
			captured = input
			return &usecase.DownloadResult{
				Path:         "/data/snapshots/2024-01-05_chase_Checking.json",
				AccountID:    "acc_123",
				AccountName:  "Checking",
				Transactions: 3,
			}, nil
		},
		noImport(t),
		noSync(t),
	)

	body, _ := json.Marshal(dto.DownloadRequest{Count: 500, FromID: "txn_9"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc_123/download", bytes.NewReader(body))
	req = withURLParam(req, "accountID", "acc_123")
	rec := httptest.NewRecorder()

	handler.Download(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.AccountID != "acc_123" || captured.Count != 500 || captured.FromID != "txn_9" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.DownloadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Transactions != 3 {
		t.Fatalf("expected 3 transactions, got %+v", resp)
	}
}

func TestImportHandler_Download_EmptyBodyUsesQuery(t *testing.T) {
	var captured usecase.DownloadInput
	handler := newImportHandler(
		func(ctx context.Context, input usecase.DownloadInput) (*usecase.DownloadResult, error) {
			captured = input
			return &usecase.DownloadResult{AccountID: "acc_123"}, nil
		},
		noImport(t),
		noSync(t),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc_123/download?count=50&from_id=txn_5", nil)
	req = withURLParam(req, "accountID", "acc_123")
	rec := httptest.NewRecorder()

	handler.Download(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Count != 50 || captured.FromID != "txn_5" {
		t.Fatalf("expected query pagination, got %+v", captured)
	}
}

func TestImportHandler_Download_MissingID(t *testing.T) {
	handler := newImportHandler(noDownload(t), noImport(t), noSync(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts//download", nil)
	rec := httptest.NewRecorder()

	handler.Download(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestImportHandler_Import(t *testing.T) {
	handler := newImportHandler(
		noDownload(t),
		func(ctx context.Context, input usecase.ImportInput) (*usecase.ImportResult, error) {
			if input.Path != "/data/snapshots/2024-01-05_chase_Checking.json" {
				t.Fatalf("unexpected path %q", input.Path)
			}
			return &usecase.ImportResult{
				Path:       input.Path,
				AccountID:  "acc_123",
				Account:    "Assets:Checking",
				Entries:    3,
				Imported:   2,
				Duplicates: 1,
				Assertions: 1,
			}, nil
		},
		noSync(t),
	)

	body, _ := json.Marshal(dto.ImportRequest{Path: "/data/snapshots/2024-01-05_chase_Checking.json"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Import(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Imported != 2 || resp.Duplicates != 1 || resp.LedgerAccount != "Assets:Checking" {
		t.Fatalf("unexpected import response: %+v", resp)
	}
}

func TestImportHandler_Import_InvalidJSON(t *testing.T) {
	handler := newImportHandler(noDownload(t), noImport(t), noSync(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewBufferString("{invalid json"))
	rec := httptest.NewRecorder()

	handler.Import(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestImportHandler_Import_MissingPath(t *testing.T) {
	handler := newImportHandler(noDownload(t), noImport(t), noSync(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()

	handler.Import(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestImportHandler_Import_UnmappedAccount(t *testing.T) {
	handler := newImportHandler(
		noDownload(t),
		func(ctx context.Context, input usecase.ImportInput) (*usecase.ImportResult, error) {
			return nil, usecase.ErrUnmappedAccount
		},
		noSync(t),
	)

	body, _ := json.Marshal(dto.ImportRequest{Path: "/data/snapshots/orphan.json"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Import(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestImportHandler_Import_MalformedRecord(t *testing.T) {
	handler := newImportHandler(
		noDownload(t),
		func(ctx context.Context, input usecase.ImportInput) (*usecase.ImportResult, error) {
			return nil, domain.ErrUnparsableDate
		},
		noSync(t),
	)

	body, _ := json.Marshal(dto.ImportRequest{Path: "/data/snapshots/bad.json"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Import(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestImportHandler_Sync(t *testing.T) {
	handler := newImportHandler(
		noDownload(t),
		noImport(t),
		func(ctx context.Context, accountID string) (*usecase.SyncResult, error) {
			if accountID != "acc_123" {
				t.Fatalf("expected accountID acc_123, got %s", accountID)
			}
			return &usecase.SyncResult{
				Download: &usecase.DownloadResult{AccountID: "acc_123", Transactions: 3},
				Import:   &usecase.ImportResult{AccountID: "acc_123", Imported: 3},
			}, nil
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc_123/sync", nil)
	req = withURLParam(req, "accountID", "acc_123")
	rec := httptest.NewRecorder()

	handler.Sync(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.SyncResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Import == nil || resp.Import.Imported != 3 {
		t.Fatalf("unexpected sync response: %+v", resp)
	}
}

func TestImportHandler_Sync_UnmappedAccount(t *testing.T) {
	handler := newImportHandler(
		noDownload(t),
		noImport(t),
		func(ctx context.Context, accountID string) (*usecase.SyncResult, error) {
			return nil, usecase.ErrUnmappedAccount
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc_999/sync", nil)
	req = withURLParam(req, "accountID", "acc_999")
	rec := httptest.NewRecorder()

	handler.Sync(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
