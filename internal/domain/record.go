package domain

// SourceRecord represents one raw transaction as delivered by an external
// bank feed. Date and Amount are kept as source text; Transformer owns
// their parsing and reports positional errors for the batch.
type SourceRecord struct {
	ID           string
	Date         string
	Description  string
	Counterparty string
	Amount       string
}
