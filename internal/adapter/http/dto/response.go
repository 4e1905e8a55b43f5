package dto

import (
	"github.com/iho/bankfeed/internal/adapter/teller"
	"github.com/iho/bankfeed/internal/usecase"
)

// AccountResponse represents a feed account in API responses, annotated
// with the ledger account it imports into.
type AccountResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Subtype       string `json:"subtype,omitempty"`
	Currency      string `json:"currency"`
	Status        string `json:"status,omitempty"`
	LastFour      string `json:"last_four,omitempty"`
	Institution   string `json:"institution"`
	LedgerAccount string `json:"ledger_account,omitempty"`
	Mapped        bool   `json:"mapped"`
}

// AccountFromInfo converts an annotated feed account to a response.
func AccountFromInfo(info usecase.AccountInfo) *AccountResponse {
	return &AccountResponse{
		ID:            info.Account.ID,
		Name:          info.Account.Name,
		Type:          info.Account.Type,
		Subtype:       info.Account.Subtype,
		Currency:      info.Account.Currency,
		Status:        info.Account.Status,
		LastFour:      info.Account.LastFour,
		Institution:   info.Account.Institution.Name,
		LedgerAccount: info.LedgerAccount,
		Mapped:        info.Mapped,
	}
}

// AccountsFromInfos converts annotated feed accounts to responses.
func AccountsFromInfos(infos []usecase.AccountInfo) []*AccountResponse {
	result := make([]*AccountResponse, len(infos))
	for i, info := range infos {
		result[i] = AccountFromInfo(info)
	}
	return result
}

// BalancesResponse represents an account's balances in API responses.
// Amounts stay the feed's decimal strings.
type BalancesResponse struct {
	AccountID string `json:"account_id"`
	Available string `json:"available"`
	Ledger    string `json:"ledger"`
}

// BalancesFromFeed converts feed balances to a response.
func BalancesFromFeed(b *teller.Balances) *BalancesResponse {
	return &BalancesResponse{
		AccountID: b.AccountID,
		Available: b.Available,
		Ledger:    b.Ledger,
	}
}

// DownloadResponse represents a written snapshot in API responses.
type DownloadResponse struct {
	Path         string `json:"path"`
	AccountID    string `json:"account_id"`
	AccountName  string `json:"account_name"`
	Transactions int    `json:"transactions"`
}

// DownloadFromResult converts a download result to a response.
func DownloadFromResult(r *usecase.DownloadResult) *DownloadResponse {
	return &DownloadResponse{
		Path:         r.Path,
		AccountID:    r.AccountID,
		AccountName:  r.AccountName,
		Transactions: r.Transactions,
	}
}

// ImportResponse represents an import outcome in API responses.
type ImportResponse struct {
	Path          string `json:"path"`
	AccountID     string `json:"account_id"`
	LedgerAccount string `json:"ledger_account"`
	Entries       int    `json:"entries"`
	Imported      int    `json:"imported"`
	Duplicates    int    `json:"duplicates"`
	Assertions    int    `json:"assertions"`
}

// ImportFromResult converts an import result to a response.
func ImportFromResult(r *usecase.ImportResult) *ImportResponse {
	return &ImportResponse{
		Path:          r.Path,
		AccountID:     r.AccountID,
		LedgerAccount: r.Account,
		Entries:       r.Entries,
		Imported:      r.Imported,
		Duplicates:    r.Duplicates,
		Assertions:    r.Assertions,
	}
}

// SyncResponse pairs the download and import halves of a sync call.
type SyncResponse struct {
	Download *DownloadResponse `json:"download"`
	Import   *ImportResponse   `json:"import"`
}

// SyncFromResult converts a sync result to a response.
func SyncFromResult(r *usecase.SyncResult) *SyncResponse {
	return &SyncResponse{
		Download: DownloadFromResult(r.Download),
		Import:   ImportFromResult(r.Import),
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
