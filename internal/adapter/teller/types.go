package teller

import (
	"github.com/iho/bankfeed/internal/domain"
)

// Institution is a bank reachable through the feed provider.
type Institution struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Products []string `json:"products,omitempty"`
}

// Account is one enrolled bank account.
type Account struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	Subtype      string      `json:"subtype,omitempty"`
	Currency     string      `json:"currency"`
	Status       string      `json:"status,omitempty"`
	LastFour     string      `json:"last_four,omitempty"`
	EnrollmentID string      `json:"enrollment_id,omitempty"`
	Institution  Institution `json:"institution"`
}

// AccountType maps the wire account type onto the ledger account type.
// Credit accounts are liabilities; everything else is held as an asset.
func (a Account) AccountType() domain.AccountType {
	if a.Type == "credit" {
		return domain.AccountTypeLiability
	}
	return domain.AccountTypeAsset
}

// Balances reports an account's balances as decimal strings.
type Balances struct {
	AccountID string `json:"account_id"`
	Available string `json:"available"`
	Ledger    string `json:"ledger"`
}

// AccountDetails carries the account and routing numbers.
type AccountDetails struct {
	AccountID      string         `json:"account_id"`
	AccountNumber  string         `json:"account_number"`
	RoutingNumbers RoutingNumbers `json:"routing_numbers"`
}

// RoutingNumbers holds the per-scheme routing numbers of an account.
type RoutingNumbers struct {
	ACH  string `json:"ach,omitempty"`
	Wire string `json:"wire,omitempty"`
	BACS string `json:"bacs,omitempty"`
}

// Counterparty is the other side of a transaction, when the provider
// could resolve one.
type Counterparty struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// TransactionDetails carries provider enrichment for a transaction.
type TransactionDetails struct {
	Category         string        `json:"category,omitempty"`
	Counterparty     *Counterparty `json:"counterparty,omitempty"`
	ProcessingStatus string        `json:"processing_status,omitempty"`
}

// Transaction is one account transaction as reported by the provider.
// Amount and Date stay textual; parsing happens in the transformer.
type Transaction struct {
	ID             string             `json:"id"`
	AccountID      string             `json:"account_id"`
	Date           string             `json:"date"`
	Description    string             `json:"description"`
	Amount         string             `json:"amount"`
	Type           string             `json:"type,omitempty"`
	Status         string             `json:"status,omitempty"`
	RunningBalance string             `json:"running_balance,omitempty"`
	Details        TransactionDetails `json:"details"`
}

// SourceRecord converts the wire transaction into the record shape the
// transformer consumes. The counterparty name is flattened out of the
// details when present.
func (t Transaction) SourceRecord() domain.SourceRecord {
	record := domain.SourceRecord{
		ID:          t.ID,
		Date:        t.Date,
		Description: t.Description,
		Amount:      t.Amount,
	}
	if t.Details.Counterparty != nil {
		record.Counterparty = t.Details.Counterparty.Name
	}
	return record
}
