package usecase

import (
	"context"

	"github.com/iho/bankfeed/internal/adapter/snapshot"
	"github.com/iho/bankfeed/internal/adapter/teller"
	"github.com/iho/bankfeed/internal/domain"
)

// FeedClient is the slice of the bank-feed API the pipelines consume.
type FeedClient interface {
	ListAccounts(ctx context.Context) ([]teller.Account, error)
	GetAccount(ctx context.Context, accountID string) (*teller.Account, error)
	AccountBalances(ctx context.Context, accountID string) (*teller.Balances, error)
	ListTransactions(ctx context.Context, accountID string, opts teller.TransactionsOptions) ([]teller.Transaction, error)
}

// SnapshotStore persists downloaded feed batches as replayable files.
type SnapshotStore interface {
	Write(snap *snapshot.Snapshot) (string, error)
	Read(path string) (*snapshot.Snapshot, error)
	Identify(path string) bool
}

// LedgerStore holds the personal ledger imports merge into.
type LedgerStore interface {
	Entries(ctx context.Context) ([]*domain.Entry, error)
	Assertions(ctx context.Context) ([]domain.BalanceAssertion, error)
	Append(ctx context.Context, entries []*domain.Entry, assertion *domain.BalanceAssertion) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
