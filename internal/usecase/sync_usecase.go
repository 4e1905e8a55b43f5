package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/iho/bankfeed/internal/infrastructure/metrics"
)

// SyncUseCase chains a download and an import for one account, so a
// single call brings the ledger up to date with the feed.
type SyncUseCase struct {
	download *DownloadUseCase
	imports  *ImportUseCase
	accounts map[string]string
	metrics  *metrics.Metrics
}

// NewSyncUseCase creates a new SyncUseCase. accounts maps feed account
// ids to ledger account paths; SyncAll walks the mapped ids.
func NewSyncUseCase(download *DownloadUseCase, imports *ImportUseCase, accounts map[string]string, metrics *metrics.Metrics) *SyncUseCase {
	return &SyncUseCase{
		download: download,
		imports:  imports,
		accounts: accounts,
		metrics:  metrics,
	}
}

// SyncResult pairs the download and import halves of one sync.
type SyncResult struct {
	Download *DownloadResult
	Import   *ImportResult
}

// Sync downloads a fresh snapshot for the account and imports it.
func (uc *SyncUseCase) Sync(ctx context.Context, accountID string) (*SyncResult, error) {
	result, err := uc.sync(ctx, accountID)

	if uc.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		uc.metrics.SyncCycles.WithLabelValues(outcome).Inc()
	}

	return result, err
}

func (uc *SyncUseCase) sync(ctx context.Context, accountID string) (*SyncResult, error) {
	if _, ok := uc.accounts[accountID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnmappedAccount, accountID)
	}

	downloaded, err := uc.download.Download(ctx, DownloadInput{AccountID: accountID})
	if err != nil {
		return nil, err
	}

	imported, err := uc.imports.Import(ctx, ImportInput{Path: downloaded.Path})
	if err != nil {
		return nil, err
	}

	return &SyncResult{Download: downloaded, Import: imported}, nil
}

// SyncAll syncs every mapped account, in stable id order. The first
// failing account aborts the run.
func (uc *SyncUseCase) SyncAll(ctx context.Context) ([]*SyncResult, error) {
	ids := make([]string, 0, len(uc.accounts))
	for id := range uc.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]*SyncResult, 0, len(ids))
	for _, id := range ids {
		result, err := uc.Sync(ctx, id)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
