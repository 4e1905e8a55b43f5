package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Point the default registry at a fresh one so New is inspectable.
	origRegisterer, origGatherer := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origRegisterer
		prometheus.DefaultGatherer = origGatherer
	})

	m := New()

	m.SnapshotsDownloaded.Inc()
	m.SnapshotTransactions.Add(12)
	m.EntriesImported.Add(3)
	m.DuplicatesSkipped.Add(2)
	m.AssertionsRecorded.Inc()
	m.ImportDuration.Observe(0.2)
	m.SyncCycles.WithLabelValues("success").Inc()
	m.SyncCycles.WithLabelValues("error").Inc()

	if got := testutil.ToFloat64(m.EntriesImported); got != 3 {
		t.Errorf("entries imported = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.SyncCycles.WithLabelValues("success")); got != 1 {
		t.Errorf("success sync cycles = %v, want 1", got)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	joined := strings.Join(names, " ")

	for _, want := range []string{
		"bankfeed_snapshots_downloaded_total",
		"bankfeed_snapshot_transactions_total",
		"bankfeed_entries_imported_total",
		"bankfeed_duplicates_skipped_total",
		"bankfeed_assertions_recorded_total",
		"bankfeed_import_duration_seconds",
		"bankfeed_sync_cycles_total",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("metric %s not registered; have: %s", want, joined)
		}
	}
}
