package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry status flags.
const (
	FlagPosted  = "*"
	FlagPending = "!"
)

// Posting metadata keys.
const (
	// MetaFinID carries the external system's transaction identifier,
	// linking a posting back to its source record.
	MetaFinID = "fin_id"

	// MetaInterpolated marks a balancing leg whose amount was computed by
	// the ledger rather than sourced from a record.
	MetaInterpolated = "interpolated"
)

// Entry represents a single ledger transaction. Entries are created once
// and never mutated; reconciliation only compares them.
type Entry struct {
	ID        string
	Date      time.Time
	Flag      string
	Payee     string
	Narration string
	Postings  []Posting
}

// Posting represents one leg of an Entry, touching exactly one account.
type Posting struct {
	Account  string
	Amount   decimal.Decimal
	Currency string
	Meta     map[string]string
}

// BalanceAssertion states the expected balance of an account on a date.
// Its date is strictly later than every transaction in the batch that
// produced it, so it is evaluated after all of them post.
type BalanceAssertion struct {
	Date     time.Time
	Account  string
	Amount   decimal.Decimal
	Currency string
}

// Equal reports whether two assertions state the same balance.
func (b BalanceAssertion) Equal(other BalanceAssertion) bool {
	return b.Date.Equal(other.Date) &&
		b.Account == other.Account &&
		b.Amount.Equal(other.Amount) &&
		b.Currency == other.Currency
}

// BalancingPostings returns the legs that bring the entry's postings to a
// zero sum per currency, posted against account and marked interpolated.
// Currencies already netting to zero produce no leg.
func (e *Entry) BalancingPostings(account string) []Posting {
	totals := make(map[string]decimal.Decimal)
	var currencies []string
	for _, p := range e.Postings {
		if _, ok := totals[p.Currency]; !ok {
			currencies = append(currencies, p.Currency)
		}
		totals[p.Currency] = totals[p.Currency].Add(p.Amount)
	}

	var legs []Posting
	for _, currency := range currencies {
		total := totals[currency]
		if total.IsZero() {
			continue
		}
		legs = append(legs, Posting{
			Account:  account,
			Amount:   total.Neg(),
			Currency: currency,
			Meta:     map[string]string{MetaInterpolated: "true"},
		})
	}
	return legs
}
