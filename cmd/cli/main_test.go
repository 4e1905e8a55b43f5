package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankfeed/internal/adapter/snapshot"
	"github.com/iho/bankfeed/internal/adapter/teller"
	"github.com/iho/bankfeed/internal/infrastructure/config"
)

func setTestEnv(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("BANKFEED_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("BANKFEED_LEDGER_FILE", filepath.Join(dir, "ledger.jsonl"))
	t.Setenv("BANKFEED_ACCOUNTS", "acc_123=Assets:Checking")
	t.Setenv("TELLER_CERT_FILE", "")
	t.Setenv("TELLER_KEY_FILE", "")
	t.Setenv("TELLER_ACCESS_TOKEN", "")
}

func runCommand(t *testing.T, out io.Writer, args ...string) error {
	t.Helper()
	cmd := buildRootCmd(out)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func writeTestSnapshot(t *testing.T, dir string) string {
	t.Helper()

	path, err := snapshot.NewStore(dir).Write(&snapshot.Snapshot{
		Version: snapshot.Version,
		Account: teller.Account{
			ID:       "acc_123",
			Name:     "Checking",
			Type:     "depository",
			Currency: "USD",
			Institution: teller.Institution{
				ID:   "test_bank",
				Name: "Test Bank",
			},
		},
		Balances: teller.Balances{
			AccountID: "acc_123",
			Ledger:    "110.50",
			Available: "110.50",
		},
		Transactions: []teller.Transaction{
			{
				ID:          "txn_1",
				AccountID:   "acc_123",
				Date:        "2025-03-02",
				Description: "Salary",
				Amount:      "115.00",
				Status:      "posted",
			},
			{
				ID:          "txn_2",
				AccountID:   "acc_123",
				Date:        "2025-03-01",
				Description: "Coffee",
				Amount:      "-4.50",
				Status:      "posted",
				Details: teller.TransactionDetails{
					Counterparty: &teller.Counterparty{Name: "Blue Bottle"},
				},
			},
		},
	})
	require.NoError(t, err)
	return path
}

func TestRootCmdRegistersSubcommands(t *testing.T) {
	cmd := buildRootCmd(io.Discard)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{
		"institutions", "identity", "accounts", "account", "balances",
		"details", "transactions", "delete-account", "download", "import", "sync",
	} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestImportCommandIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)
	path := writeTestSnapshot(t, filepath.Join(dir, "data"))

	var out bytes.Buffer
	require.NoError(t, runCommand(t, &out, "import", path))
	assert.Contains(t, out.String(), "Assets:Checking: 2 imported, 0 duplicates, 1 assertions")

	out.Reset()
	require.NoError(t, runCommand(t, &out, "import", path))
	assert.Contains(t, out.String(), "Assets:Checking: 0 imported, 2 duplicates, 0 assertions")
}

func TestImportCommandSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	foreign := filepath.Join(dir, "notes.json")
	require.NoError(t, os.WriteFile(foreign, []byte(`{"hello":"world"}`), 0o644))

	var out bytes.Buffer
	require.NoError(t, runCommand(t, &out, "import", foreign))
	assert.Empty(t, out.String())
}

func TestDownloadCommandRequiresCredentials(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	err := runCommand(t, io.Discard, "download", "acc_123")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestDownloadCommandRejectsAmbiguousTarget(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	err := runCommand(t, io.Discard, "download")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")

	err = runCommand(t, io.Discard, "download", "acc_123", "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestSyncCommandRequiresCredentials(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	err := runCommand(t, io.Discard, "sync", "--all")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}
