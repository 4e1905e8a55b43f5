package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iho/bankfeed/internal/domain"
	"github.com/iho/bankfeed/internal/infrastructure/metrics"
)

// ErrUnmappedAccount means a snapshot's feed account has no configured
// ledger account to import into.
var ErrUnmappedAccount = errors.New("feed account not mapped to a ledger account")

// ImportUseCase merges a snapshot into the ledger without duplicating
// entries already present. Re-importing an overlapping or identical
// snapshot is idempotent: the deduplication pass is the idempotency
// mechanism.
type ImportUseCase struct {
	snapshots    SnapshotStore
	ledger       LedgerStore
	ids          IDGenerator
	accounts     map[string]string
	maxDateDelta *time.Duration
	metrics      *metrics.Metrics
}

// NewImportUseCase creates a new ImportUseCase. accounts maps feed account
// ids to ledger account paths; maxDateDelta bounds the comparator's date
// gate, nil disables it.
func NewImportUseCase(
	snapshots SnapshotStore,
	ledger LedgerStore,
	ids IDGenerator,
	accounts map[string]string,
	maxDateDelta *time.Duration,
	metrics *metrics.Metrics,
) *ImportUseCase {
	return &ImportUseCase{
		snapshots:    snapshots,
		ledger:       ledger,
		ids:          ids,
		accounts:     accounts,
		maxDateDelta: maxDateDelta,
		metrics:      metrics,
	}
}

// ImportInput represents input for one snapshot import.
type ImportInput struct {
	Path string
}

// ImportResult summarizes one import.
type ImportResult struct {
	Path       string
	AccountID  string
	Account    string
	Entries    int
	Imported   int
	Duplicates int
	Assertions int
}

// Import reads the snapshot at input.Path, transforms its records into
// ledger entries, drops the ones the ledger already has, and appends the
// rest plus the trailing balance assertion.
func (uc *ImportUseCase) Import(ctx context.Context, input ImportInput) (*ImportResult, error) {
	start := time.Now()
	result, err := uc.importSnapshot(ctx, input)

	if uc.metrics != nil {
		if err != nil {
			uc.metrics.ImportErrors.Inc()
		} else {
			uc.metrics.EntriesImported.Add(float64(result.Imported))
			uc.metrics.DuplicatesSkipped.Add(float64(result.Duplicates))
			uc.metrics.AssertionsRecorded.Add(float64(result.Assertions))
			uc.metrics.ImportDuration.Observe(time.Since(start).Seconds())
		}
	}

	return result, err
}

func (uc *ImportUseCase) importSnapshot(ctx context.Context, input ImportInput) (*ImportResult, error) {
	snap, err := uc.snapshots.Read(input.Path)
	if err != nil {
		return nil, err
	}

	ledgerAccount, ok := uc.accounts[snap.Account.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnmappedAccount, snap.Account.ID)
	}

	result := &ImportResult{
		Path:      input.Path,
		AccountID: snap.Account.ID,
		Account:   ledgerAccount,
	}

	records := snap.SourceRecords()
	if len(records) == 0 {
		return result, nil
	}

	balance, err := snap.LedgerBalance()
	if err != nil {
		return nil, err
	}

	transformer := domain.NewTransformer(ledgerAccount, snap.Account.Currency, snap.Account.AccountType(), uc.ids)
	entries, assertion, err := transformer.Transform(records, balance)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", input.Path, err)
	}
	result.Entries = len(entries)

	existing, err := uc.ledger.Entries(ctx)
	if err != nil {
		return nil, err
	}

	duplicate := uc.markDuplicates(entries, existing)

	fresh := make([]*domain.Entry, 0, len(entries))
	for i, entry := range entries {
		if duplicate[i] {
			result.Duplicates++
			continue
		}
		fresh = append(fresh, entry)
	}
	result.Imported = len(fresh)

	if assertion != nil {
		present, err := uc.ledger.Assertions(ctx)
		if err != nil {
			return nil, err
		}
		result.Assertions = 1
		for _, a := range present {
			if a.Equal(*assertion) {
				result.Assertions = 0
				break
			}
		}
	}

	if err := uc.ledger.Append(ctx, fresh, assertion); err != nil {
		return nil, err
	}

	return result, nil
}

// markDuplicates reports, per candidate, whether some existing ledger
// entry is similar to it. Candidates are fanned out over a bounded worker
// pool; one shared comparator keeps each entry's fingerprint computed
// once across all pairings.
func (uc *ImportUseCase) markDuplicates(candidates, existing []*domain.Entry) []bool {
	duplicate := make([]bool, len(candidates))
	if len(existing) == 0 || len(candidates) == 0 {
		return duplicate
	}

	comparator := domain.NewSimilarityComparator(uc.maxDateDelta)

	workers := DedupWorkers
	if len(candidates) < workers {
		workers = len(candidates)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				for _, present := range existing {
					if comparator.Similar(candidates[i], present) {
						duplicate[i] = true
						break
					}
				}
			}
		}()
	}

	for i := range candidates {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return duplicate
}
