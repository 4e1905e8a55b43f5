package usecase

import (
	"context"
	"fmt"

	"github.com/iho/bankfeed/internal/adapter/snapshot"
	"github.com/iho/bankfeed/internal/adapter/teller"
	"github.com/iho/bankfeed/internal/infrastructure/metrics"
)

// DownloadUseCase fetches one account's feed state and persists it as a
// snapshot file.
type DownloadUseCase struct {
	feed      FeedClient
	snapshots SnapshotStore
	metrics   *metrics.Metrics
}

// NewDownloadUseCase creates a new DownloadUseCase.
func NewDownloadUseCase(feed FeedClient, snapshots SnapshotStore, metrics *metrics.Metrics) *DownloadUseCase {
	return &DownloadUseCase{
		feed:      feed,
		snapshots: snapshots,
		metrics:   metrics,
	}
}

// DownloadInput represents input for a single-account download. Count and
// FromID pass through to the feed's transaction pagination.
type DownloadInput struct {
	AccountID string
	Count     int
	FromID    string
}

// DownloadResult describes one written snapshot.
type DownloadResult struct {
	Path         string
	AccountID    string
	AccountName  string
	Transactions int
}

// Download fetches the account, its balances, and its transactions, and
// writes them as one snapshot.
func (uc *DownloadUseCase) Download(ctx context.Context, input DownloadInput) (*DownloadResult, error) {
	result, err := uc.download(ctx, input)

	if uc.metrics != nil {
		if err != nil {
			uc.metrics.DownloadErrors.Inc()
		} else {
			uc.metrics.SnapshotsDownloaded.Inc()
			uc.metrics.SnapshotTransactions.Add(float64(result.Transactions))
		}
	}

	return result, err
}

func (uc *DownloadUseCase) download(ctx context.Context, input DownloadInput) (*DownloadResult, error) {
	account, err := uc.feed.GetAccount(ctx, input.AccountID)
	if err != nil {
		return nil, fmt.Errorf("fetch account %s: %w", input.AccountID, err)
	}

	balances, err := uc.feed.AccountBalances(ctx, input.AccountID)
	if err != nil {
		return nil, fmt.Errorf("fetch balances for %s: %w", input.AccountID, err)
	}

	transactions, err := uc.feed.ListTransactions(ctx, input.AccountID, teller.TransactionsOptions{
		Count:  input.Count,
		FromID: input.FromID,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch transactions for %s: %w", input.AccountID, err)
	}

	path, err := uc.snapshots.Write(&snapshot.Snapshot{
		Version:      snapshot.Version,
		Account:      *account,
		Balances:     *balances,
		Transactions: transactions,
	})
	if err != nil {
		return nil, fmt.Errorf("write snapshot for %s: %w", input.AccountID, err)
	}

	return &DownloadResult{
		Path:         path,
		AccountID:    account.ID,
		AccountName:  account.Name,
		Transactions: len(transactions),
	}, nil
}

// DownloadAll downloads a snapshot for every account visible to the
// enrollment, in the order the feed lists them. The first failing account
// aborts the run.
func (uc *DownloadUseCase) DownloadAll(ctx context.Context) ([]*DownloadResult, error) {
	accounts, err := uc.feed.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	results := make([]*DownloadResult, 0, len(accounts))
	for _, account := range accounts {
		result, err := uc.Download(ctx, DownloadInput{AccountID: account.ID})
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
