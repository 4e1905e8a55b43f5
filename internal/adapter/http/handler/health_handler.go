package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	snapshotDir string
	ledgerPath  string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(snapshotDir, ledgerPath string) *HealthHandler {
	return &HealthHandler{
		snapshotDir: snapshotDir,
		ledgerPath:  ledgerPath,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic. Both
// stores write through temp files in their directories, so readiness is
// those directories being writable. The feed API is not probed: download
// requests fail on their own when it is down.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := probeDir(h.snapshotDir); err != nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot dir not writable", err.Error())
		return
	}

	if err := probeDir(filepath.Dir(h.ledgerPath)); err != nil {
		writeError(w, http.StatusServiceUnavailable, "ledger dir not writable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ready",
		"snapshots": "ok",
		"ledger":    "ok",
	})
}

// probeDir verifies the directory exists and accepts writes.
func probeDir(dir string) error {
	f, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return fmt.Errorf("probe %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()

	return os.Remove(name)
}
