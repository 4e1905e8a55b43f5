package dto

import (
	"github.com/iho/bankfeed/internal/usecase"
)

// ImportRequest represents a request to import a snapshot file.
type ImportRequest struct {
	Path string `json:"path"`
}

// ToUseCaseInput converts to use case input.
func (r *ImportRequest) ToUseCaseInput() usecase.ImportInput {
	return usecase.ImportInput{
		Path: r.Path,
	}
}

// DownloadRequest represents the optional pagination controls of a
// download request.
type DownloadRequest struct {
	Count  int    `json:"count,omitempty"`
	FromID string `json:"from_id,omitempty"`
}

// ToUseCaseInput converts to use case input for the given account.
func (r *DownloadRequest) ToUseCaseInput(accountID string) usecase.DownloadInput {
	return usecase.DownloadInput{
		AccountID: accountID,
		Count:     r.Count,
		FromID:    r.FromID,
	}
}
