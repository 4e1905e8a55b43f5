package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// IDGenerator produces stable identity keys for new entries. Comparator
// caches are keyed on them.
type IDGenerator interface {
	Generate() string
}

// Transformer converts source records for a single account into ledger
// entries.
type Transformer struct {
	account     string
	currency    string
	accountType AccountType
	ids         IDGenerator
}

// NewTransformer returns a Transformer for the given ledger account. A nil
// ids leaves new entries without identity keys.
func NewTransformer(account, currency string, accountType AccountType, ids IDGenerator) *Transformer {
	return &Transformer{
		account:     account,
		currency:    currency,
		accountType: accountType,
		ids:         ids,
	}
}

// Transform converts records into one entry per record, order preserved,
// followed by a balance assertion dated the day after the latest
// transaction. The asserted amount is ledgerBalance, negated for liability
// accounts. An empty batch produces no entries and no assertion. Any
// malformed record fails the whole batch; nothing partial is returned.
func (t *Transformer) Transform(records []SourceRecord, ledgerBalance decimal.Decimal) ([]*Entry, *BalanceAssertion, error) {
	if len(records) == 0 {
		return nil, nil, nil
	}

	entries := make([]*Entry, 0, len(records))
	var latest time.Time

	for i, record := range records {
		entry, err := t.transformRecord(record)
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i, err)
		}
		if entry.Date.After(latest) {
			latest = entry.Date
		}
		entries = append(entries, entry)
	}

	amount := ledgerBalance
	if t.accountType == AccountTypeLiability {
		amount = amount.Neg()
	}
	assertion := &BalanceAssertion{
		Date:     latest.AddDate(0, 0, 1),
		Account:  t.account,
		Amount:   amount,
		Currency: t.currency,
	}
	return entries, assertion, nil
}

func (t *Transformer) transformRecord(record SourceRecord) (*Entry, error) {
	if record.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if record.Date == "" {
		return nil, fmt.Errorf("%w: missing date", ErrMalformedRecord)
	}
	if record.Amount == "" {
		return nil, fmt.Errorf("%w: missing amount", ErrMalformedRecord)
	}

	date, err := ParseDate(record.Date)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(record.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", ErrMalformedRecord, record.Amount)
	}

	payee := record.Counterparty
	if payee == "" {
		payee = record.Description
	}

	var id string
	if t.ids != nil {
		id = t.ids.Generate()
	}

	return &Entry{
		ID:        id,
		Date:      date,
		Flag:      FlagPosted,
		Payee:     payee,
		Narration: record.Description,
		Postings: []Posting{{
			Account:  t.account,
			Amount:   amount.Neg(),
			Currency: t.currency,
			Meta:     map[string]string{MetaFinID: record.ID},
		}},
	}, nil
}
