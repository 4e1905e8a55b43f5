package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankfeed/internal/adapter/teller"
	"github.com/iho/bankfeed/internal/domain"
)

// Version identifies the snapshot document format.
const Version = "0.1"

// ErrBadSnapshot marks a file that is not a usable snapshot.
var ErrBadSnapshot = errors.New("not a usable snapshot")

// Snapshot is one downloaded feed batch for a single account. The field
// names are fixed by the on-disk format.
type Snapshot struct {
	Version      string               `json:"teller-version"`
	Account      teller.Account       `json:"accounts"`
	Balances     teller.Balances      `json:"balances"`
	Transactions []teller.Transaction `json:"transactions"`
}

// SourceRecords converts the snapshot's transactions into feed records,
// preserving order.
func (s *Snapshot) SourceRecords() []domain.SourceRecord {
	records := make([]domain.SourceRecord, 0, len(s.Transactions))
	for _, txn := range s.Transactions {
		records = append(records, txn.SourceRecord())
	}
	return records
}

// LedgerBalance parses the provider-reported ledger balance.
func (s *Snapshot) LedgerBalance() (decimal.Decimal, error) {
	balance, err := decimal.NewFromString(s.Balances.Ledger)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: ledger balance %q", ErrBadSnapshot, s.Balances.Ledger)
	}
	return balance, nil
}

// Store reads and writes snapshots under one directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir. The directory is created on
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Write persists the snapshot as
// <date>_<Institution>_<AccountName>.json and returns the path. Writing
// the same account twice on one day overwrites the earlier file.
func (s *Store) Write(snap *Snapshot) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.json",
		s.now().UTC().Format("2006-01-02"),
		snap.Account.Institution.Name,
		snap.Account.Name,
	)
	path := filepath.Join(s.dir, strings.ReplaceAll(name, " ", "_"))

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// Read loads and validates a snapshot file.
func (s *Store) Read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadSnapshot, path, err)
	}
	if snap.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrBadSnapshot, snap.Version)
	}
	if snap.Account.ID == "" {
		return nil, fmt.Errorf("%w: missing account", ErrBadSnapshot)
	}
	return &snap, nil
}

// Identify reports whether path looks like an importable snapshot.
// Foreign JSON files and unreadable files report false, never an error.
func (s *Store) Identify(path string) bool {
	snap, err := s.Read(path)
	return err == nil && snap != nil
}
