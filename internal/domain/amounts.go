package domain

import "github.com/shopspring/decimal"

// AmountKey identifies one strand of linked amounts inside an entry.
type AmountKey struct {
	Account  string
	FinID    string
	Currency string
}

// AmountsMap computes the net amount per (account, fin_id, currency) over
// the entry's postings. Postings with no metadata, an interpolation
// marker, no linkage id, or an unknown currency do not contribute.
// Calling it twice on the same entry yields an identical mapping.
func AmountsMap(entry *Entry) map[AmountKey]decimal.Decimal {
	amounts := make(map[AmountKey]decimal.Decimal)
	for _, posting := range entry.Postings {
		if len(posting.Meta) == 0 {
			continue
		}
		if _, ok := posting.Meta[MetaInterpolated]; ok {
			continue
		}
		finID, ok := posting.Meta[MetaFinID]
		if !ok {
			continue
		}
		if ValidateCurrency(posting.Currency) != nil {
			continue
		}
		key := AmountKey{Account: posting.Account, FinID: finID, Currency: posting.Currency}
		amounts[key] = amounts[key].Add(posting.Amount)
	}
	return amounts
}
