package usecase

import (
	"context"

	"github.com/iho/bankfeed/internal/adapter/teller"
)

// AccountUseCase exposes the enrolled feed accounts together with their
// ledger mapping.
type AccountUseCase struct {
	feed     FeedClient
	accounts map[string]string
}

// NewAccountUseCase creates a new AccountUseCase. accounts maps feed
// account ids to ledger account paths.
func NewAccountUseCase(feed FeedClient, accounts map[string]string) *AccountUseCase {
	return &AccountUseCase{
		feed:     feed,
		accounts: accounts,
	}
}

// AccountInfo pairs a feed account with the ledger account it imports
// into. Mapped is false when no ledger account is configured for it.
type AccountInfo struct {
	Account       teller.Account
	LedgerAccount string
	Mapped        bool
}

// ListAccounts returns every account visible to the enrollment, annotated
// with its ledger mapping.
func (uc *AccountUseCase) ListAccounts(ctx context.Context) ([]AccountInfo, error) {
	accounts, err := uc.feed.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]AccountInfo, 0, len(accounts))
	for _, account := range accounts {
		ledgerAccount, mapped := uc.accounts[account.ID]
		infos = append(infos, AccountInfo{
			Account:       account,
			LedgerAccount: ledgerAccount,
			Mapped:        mapped,
		})
	}
	return infos, nil
}

// GetBalances returns the feed's balances for one account.
func (uc *AccountUseCase) GetBalances(ctx context.Context, accountID string) (*teller.Balances, error) {
	return uc.feed.AccountBalances(ctx, accountID)
}
