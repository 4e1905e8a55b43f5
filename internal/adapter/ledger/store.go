package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankfeed/internal/domain"
)

// ErrCorruptLedger marks a ledger file line that cannot be decoded.
var ErrCorruptLedger = errors.New("corrupt ledger file")

// Line kinds in the ledger file.
const (
	kindTransaction = "transaction"
	kindBalance     = "balance"
)

const dateLayout = "2006-01-02"

// Store is a file-backed ledger holding entries and balance assertions,
// one JSON document per line. A missing file reads as an empty ledger.
type Store struct {
	path              string
	unassignedAccount string
	ids               domain.IDGenerator

	mu sync.Mutex
}

// NewStore returns a store persisting to path. Entries appended with a
// single posting gain a balancing leg on unassignedAccount.
func NewStore(path, unassignedAccount string, ids domain.IDGenerator) *Store {
	return &Store{
		path:              path,
		unassignedAccount: unassignedAccount,
		ids:               ids,
	}
}

type postingLine struct {
	Account  string            `json:"account"`
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency"`
	Meta     map[string]string `json:"meta,omitempty"`
}

type ledgerLine struct {
	Kind      string        `json:"kind"`
	Date      string        `json:"date"`
	ID        string        `json:"id,omitempty"`
	Flag      string        `json:"flag,omitempty"`
	Payee     string        `json:"payee,omitempty"`
	Narration string        `json:"narration,omitempty"`
	Postings  []postingLine `json:"postings,omitempty"`

	// Balance kind only.
	Account  string           `json:"account,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Currency string           `json:"currency,omitempty"`
}

// Entries returns all transactions in file order. Entries stored without
// an identity key are assigned one while loading.
func (s *Store) Entries(ctx context.Context) ([]*domain.Entry, error) {
	entries, _, err := s.load(ctx)
	return entries, err
}

// Assertions returns all balance assertions in file order.
func (s *Store) Assertions(ctx context.Context) ([]domain.BalanceAssertion, error) {
	_, assertions, err := s.load(ctx)
	return assertions, err
}

// Append atomically adds entries and an optional assertion to the ledger.
// Single-posting entries are completed with interpolated balancing legs;
// an assertion equal to one already present is dropped.
func (s *Store) Append(ctx context.Context, entries []*domain.Entry, assertion *domain.BalanceAssertion) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read ledger: %w", err)
	}

	if assertion != nil {
		_, assertions, err := s.decode(existing)
		if err != nil {
			return err
		}
		for _, present := range assertions {
			if present.Equal(*assertion) {
				assertion = nil
				break
			}
		}
	}

	var lines []byte
	for _, entry := range entries {
		line, err := json.Marshal(s.entryLine(entry))
		if err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
		lines = append(lines, line...)
		lines = append(lines, '\n')
	}
	if assertion != nil {
		line, err := json.Marshal(assertionLine(*assertion))
		if err != nil {
			return fmt.Errorf("encode assertion: %w", err)
		}
		lines = append(lines, line...)
		lines = append(lines, '\n')
	}
	if len(lines) == 0 {
		return nil
	}

	return s.rewrite(append(existing, lines...))
}

// rewrite replaces the ledger file through a temp file and rename so a
// crash never leaves a half-written ledger behind.
func (s *Store) rewrite(content []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) ([]*domain.Entry, []domain.BalanceAssertion, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read ledger: %w", err)
	}
	return s.decode(content)
}

func (s *Store) decode(content []byte) ([]*domain.Entry, []domain.BalanceAssertion, error) {
	var entries []*domain.Entry
	var assertions []domain.BalanceAssertion

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var line ledgerLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", ErrCorruptLedger, lineNo, err)
		}
		date, err := time.Parse(dateLayout, line.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: bad date %q", ErrCorruptLedger, lineNo, line.Date)
		}

		switch line.Kind {
		case kindTransaction:
			entry := &domain.Entry{
				ID:        line.ID,
				Date:      date,
				Flag:      line.Flag,
				Payee:     line.Payee,
				Narration: line.Narration,
			}
			if entry.ID == "" && s.ids != nil {
				entry.ID = s.ids.Generate()
			}
			for _, p := range line.Postings {
				entry.Postings = append(entry.Postings, domain.Posting{
					Account:  p.Account,
					Amount:   p.Amount,
					Currency: p.Currency,
					Meta:     p.Meta,
				})
			}
			entries = append(entries, entry)
		case kindBalance:
			if line.Amount == nil {
				return nil, nil, fmt.Errorf("%w: line %d: balance without amount", ErrCorruptLedger, lineNo)
			}
			assertions = append(assertions, domain.BalanceAssertion{
				Date:     date,
				Account:  line.Account,
				Amount:   *line.Amount,
				Currency: line.Currency,
			})
		default:
			return nil, nil, fmt.Errorf("%w: line %d: unknown kind %q", ErrCorruptLedger, lineNo, line.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan ledger: %w", err)
	}
	return entries, assertions, nil
}

// entryLine encodes an entry, completing single-sided entries with their
// balancing legs. The caller's entry is never modified.
func (s *Store) entryLine(entry *domain.Entry) ledgerLine {
	line := ledgerLine{
		Kind:      kindTransaction,
		Date:      entry.Date.Format(dateLayout),
		ID:        entry.ID,
		Flag:      entry.Flag,
		Payee:     entry.Payee,
		Narration: entry.Narration,
	}
	for _, p := range entry.Postings {
		line.Postings = append(line.Postings, postingLine{
			Account:  p.Account,
			Amount:   p.Amount,
			Currency: p.Currency,
			Meta:     p.Meta,
		})
	}
	if s.unassignedAccount != "" {
		for _, leg := range entry.BalancingPostings(s.unassignedAccount) {
			line.Postings = append(line.Postings, postingLine{
				Account:  leg.Account,
				Amount:   leg.Amount,
				Currency: leg.Currency,
				Meta:     leg.Meta,
			})
		}
	}
	return line
}

func assertionLine(assertion domain.BalanceAssertion) ledgerLine {
	amount := assertion.Amount
	return ledgerLine{
		Kind:     kindBalance,
		Date:     assertion.Date.Format(dateLayout),
		Account:  assertion.Account,
		Amount:   &amount,
		Currency: assertion.Currency,
	}
}
