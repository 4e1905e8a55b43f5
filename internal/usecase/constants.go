package usecase

import "time"

const (
	// DefaultMaxDateDelta is how far apart two entries' dates may drift
	// before they stop being deduplication candidates. Feed and ledger
	// dates commonly disagree by a settlement day or two.
	DefaultMaxDateDelta = 72 * time.Hour

	// DedupWorkers is the number of concurrent workers checking candidate
	// entries against the existing ledger during an import.
	DedupWorkers = 4
)
