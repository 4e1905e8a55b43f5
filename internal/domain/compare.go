package domain

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// similarityEpsilon is the fraction of variation tolerated between two
// netted amounts before they stop counting as the same.
var similarityEpsilon = decimal.NewFromFloat(0.05)

var decimalOne = decimal.NewFromInt(1)

// SimilarityComparator decides whether two entries describe the same
// real-world transaction. It tolerates slightly different dates, slightly
// different amounts, and entries that are incomplete on one side. Safe
// for concurrent use; fingerprints are cached per entry identity for the
// comparator's lifetime.
type SimilarityComparator struct {
	maxDateDelta *time.Duration

	mu    sync.Mutex
	cache map[string]map[AmountKey]decimal.Decimal
}

// NewSimilarityComparator returns a comparator. maxDateDelta bounds the
// tolerated distance between entry dates; nil tolerates any distance.
func NewSimilarityComparator(maxDateDelta *time.Duration) *SimilarityComparator {
	return &SimilarityComparator{
		maxDateDelta: maxDateDelta,
		cache:        make(map[string]map[AmountKey]decimal.Decimal),
	}
}

// Similar reports whether a and b are close enough in date and netted
// amounts to be the same transaction. It never mutates either entry.
func (c *SimilarityComparator) Similar(a, b *Entry) bool {
	if c.maxDateDelta != nil {
		delta := a.Date.Sub(b.Date)
		if delta < 0 {
			delta = -delta
		}
		if delta > *c.maxDateDelta {
			return false
		}
	}

	amountsA := c.amounts(a)
	amountsB := c.amounts(b)

	keys := make([]AmountKey, 0, len(amountsA))
	for key := range amountsA {
		if _, ok := amountsB[key]; ok {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, compareAmountKeys)

	for _, key := range keys {
		na, nb := amountsA[key], amountsB[key]
		if na.IsZero() && nb.IsZero() {
			return true
		}
		if na.IsZero() || nb.IsZero() {
			// Singular ratio: this key cannot match, later keys still can.
			continue
		}
		ratio := na.Div(nb).Abs()
		if ratio.LessThan(decimalOne) {
			ratio = decimalOne.Div(ratio)
		}
		if ratio.Sub(decimalOne).LessThan(similarityEpsilon) {
			return true
		}
	}
	return false
}

// amounts returns the entry's fingerprint, reusing the cached one when the
// entry carries an identity key. First-time computation happens outside
// the lock; a concurrent duplicate computation is discarded, not raced.
func (c *SimilarityComparator) amounts(entry *Entry) map[AmountKey]decimal.Decimal {
	if entry.ID == "" {
		return AmountsMap(entry)
	}

	c.mu.Lock()
	cached, ok := c.cache[entry.ID]
	c.mu.Unlock()
	if ok {
		return cached
	}

	computed := AmountsMap(entry)

	c.mu.Lock()
	if cached, ok := c.cache[entry.ID]; ok {
		computed = cached
	} else {
		c.cache[entry.ID] = computed
	}
	c.mu.Unlock()
	return computed
}

func compareAmountKeys(a, b AmountKey) int {
	if c := strings.Compare(a.Account, b.Account); c != 0 {
		return c
	}
	if c := strings.Compare(a.FinID, b.FinID); c != 0 {
		return c
	}
	return strings.Compare(a.Currency, b.Currency)
}
