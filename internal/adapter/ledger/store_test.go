package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankfeed/internal/domain"
)

type seqIDs struct {
	n int
}

func (g *seqIDs) Generate() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "ledger.jsonl"), "Expenses:Unassigned", &seqIDs{})
}

func testEntry(id, account, finID, amount string) *domain.Entry {
	return &domain.Entry{
		ID:    id,
		Date:  time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Flag:  domain.FlagPosted,
		Payee: "COFFEE SHOP 42",
		Postings: []domain.Posting{
			{
				Account:  account,
				Amount:   decimal.RequireFromString(amount),
				Currency: "USD",
				Meta:     map[string]string{domain.MetaFinID: finID},
			},
		},
	}
}

func TestStore_AppendRead(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	assertion := &domain.BalanceAssertion{
		Date:     time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Account:  "Assets:Checking",
		Amount:   decimal.RequireFromString("120"),
		Currency: "USD",
	}

	err := store.Append(ctx, []*domain.Entry{testEntry("e1", "Assets:Checking", "txn_1", "4.50")}, assertion)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.ID != "e1" || entry.Payee != "COFFEE SHOP 42" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if len(entry.Postings) != 2 {
		t.Fatalf("expected balancing leg to be added, got postings %+v", entry.Postings)
	}
	leg := entry.Postings[1]
	if leg.Account != "Expenses:Unassigned" || !leg.Amount.Equal(decimal.RequireFromString("-4.50")) {
		t.Errorf("unexpected balancing leg %+v", leg)
	}
	if leg.Meta[domain.MetaInterpolated] != "true" {
		t.Errorf("expected balancing leg to be marked interpolated, got %+v", leg.Meta)
	}
	if entry.Postings[0].Meta[domain.MetaFinID] != "txn_1" {
		t.Errorf("expected fin_id to round-trip, got %+v", entry.Postings[0].Meta)
	}

	assertions, err := store.Assertions(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assertions) != 1 || !assertions[0].Equal(*assertion) {
		t.Errorf("unexpected assertions %+v", assertions)
	}
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty ledger, got %+v", entries)
	}

	assertions, err := store.Assertions(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assertions) != 0 {
		t.Errorf("expected no assertions, got %+v", assertions)
	}
}

func TestStore_BalancedEntryGainsNoLeg(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	entry := testEntry("e1", "Assets:Checking", "txn_1", "4.50")
	entry.Postings = append(entry.Postings, domain.Posting{
		Account:  "Expenses:Coffee",
		Amount:   decimal.RequireFromString("-4.50"),
		Currency: "USD",
	})

	if err := store.Append(ctx, []*domain.Entry{entry}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Postings) != 2 {
		t.Fatalf("expected postings untouched, got %+v", entries[0].Postings)
	}
}

func TestStore_AppendDropsEqualAssertion(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	assertion := &domain.BalanceAssertion{
		Date:     time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Account:  "Assets:Checking",
		Amount:   decimal.RequireFromString("120"),
		Currency: "USD",
	}

	if err := store.Append(ctx, nil, assertion); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Append(ctx, nil, assertion); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertions, err := store.Assertions(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assertions) != 1 {
		t.Fatalf("expected duplicate assertion to be dropped, got %d", len(assertions))
	}

	// A different balance on the same date is a new statement, not a
	// duplicate.
	changed := *assertion
	changed.Amount = decimal.RequireFromString("130")
	if err := store.Append(ctx, nil, &changed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertions, err = store.Assertions(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assertions) != 2 {
		t.Fatalf("expected changed assertion to append, got %d", len(assertions))
	}
}

func TestStore_AssignsIDsOnLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	line := `{"kind":"transaction","date":"2024-01-03","flag":"*","payee":"LEGACY","postings":[{"account":"Assets:Checking","amount":"-4.5","currency":"USD"}]}` + "\n"
	if err := os.WriteFile(path, []byte(line), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := NewStore(path, "Expenses:Unassigned", &seqIDs{})
	entries, err := store.Entries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "id-1" {
		t.Fatalf("expected loaded entry to gain an id, got %+v", entries)
	}
}

func TestStore_CorruptLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	if err := os.WriteFile(path, []byte("not json\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := NewStore(path, "Expenses:Unassigned", &seqIDs{})
	if _, err := store.Entries(context.Background()); !errors.Is(err, ErrCorruptLedger) {
		t.Fatalf("expected ErrCorruptLedger, got %v", err)
	}
}

func TestStore_AppendNothingWritesNothing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(store.path); !os.IsNotExist(err) {
		t.Fatalf("expected no ledger file, stat err %v", err)
	}
}
