package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Download metrics
	SnapshotsDownloaded  prometheus.Counter
	SnapshotTransactions prometheus.Counter
	DownloadErrors       prometheus.Counter

	// Import metrics
	EntriesImported    prometheus.Counter
	DuplicatesSkipped  prometheus.Counter
	AssertionsRecorded prometheus.Counter
	ImportDuration     prometheus.Histogram
	ImportErrors       prometheus.Counter

	// Sync metrics
	SyncCycles *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Download metrics
		SnapshotsDownloaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankfeed_snapshots_downloaded_total",
			Help: "Total number of snapshot files written",
		}),
		SnapshotTransactions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankfeed_snapshot_transactions_total",
			Help: "Total number of transactions fetched into snapshots",
		}),
		DownloadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankfeed_download_errors_total",
			Help: "Total number of failed snapshot downloads",
		}),

		// Import metrics
		EntriesImported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankfeed_entries_imported_total",
			Help: "Total number of entries appended to the ledger",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankfeed_duplicates_skipped_total",
			Help: "Total number of entries skipped as duplicates",
		}),
		AssertionsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankfeed_assertions_recorded_total",
			Help: "Total number of balance assertions appended to the ledger",
		}),
		ImportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankfeed_import_duration_seconds",
			Help:    "Duration of snapshot imports",
			Buckets: prometheus.DefBuckets,
		}),
		ImportErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankfeed_import_errors_total",
			Help: "Total number of failed snapshot imports",
		}),

		// Sync metrics
		SyncCycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankfeed_sync_cycles_total",
				Help: "Total number of account syncs by outcome",
			},
			[]string{"outcome"},
		),
	}
}
