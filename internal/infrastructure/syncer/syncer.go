package syncer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bankfeed/internal/usecase"
)

// SyncService defines the behavior the loop drives.
type SyncService interface {
	SyncAll(ctx context.Context) ([]*usecase.SyncResult, error)
}

// Syncer periodically downloads a fresh snapshot for every mapped account
// and imports it, so a long-running server keeps the ledger current
// without anyone calling the API.
type Syncer struct {
	sync     SyncService
	logger   zerolog.Logger
	interval time.Duration
}

// Config for Syncer.
type Config struct {
	Sync     SyncService
	Logger   zerolog.Logger
	Interval time.Duration // Time between cycles
}

// New creates a new Syncer.
func New(cfg Config) *Syncer {
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Minute
	}

	return &Syncer{
		sync:     cfg.Sync,
		logger:   cfg.Logger.With().Str("component", "syncer").Logger(),
		interval: cfg.Interval,
	}
}

// Start runs sync cycles until the context is cancelled. The first cycle
// runs immediately.
func (s *Syncer) Start(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("sync loop started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sync loop shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle syncs every mapped account once. A failed cycle is logged and
// the loop keeps going; the next tick retries from scratch.
func (s *Syncer) runCycle(ctx context.Context) {
	start := time.Now()

	results, err := s.sync.SyncAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("sync cycle failed")
		return
	}

	var imported, duplicates int
	for _, result := range results {
		imported += result.Import.Imported
		duplicates += result.Import.Duplicates
	}

	s.logger.Info().
		Int("accounts", len(results)).
		Int("imported", imported).
		Int("duplicates", duplicates).
		Dur("took", time.Since(start)).
		Msg("sync cycle completed")
}
