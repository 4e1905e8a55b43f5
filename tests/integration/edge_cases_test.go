package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankfeed/internal/adapter/snapshot"
	"github.com/iho/bankfeed/internal/adapter/teller"
	"github.com/iho/bankfeed/internal/domain"
	"github.com/iho/bankfeed/internal/usecase"
	"github.com/iho/bankfeed/tests/testutil"
)

func TestImportEdgeCases(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	t.Run("unmapped account refuses to import", func(t *testing.T) {
		e := newEnv(t, map[string]string{})
		e.feed.AddAccount(
			testutil.CheckingAccount("acc_check"),
			teller.Balances{AccountID: "acc_check", Ledger: "10.00", Available: "10.00"},
			[]teller.Transaction{
				testutil.PostedTransaction("txn_1", "acc_check", "2025-03-01", "10.00", "Deposit"),
			},
		)

		download, err := e.downloadUC.Download(ctx, usecase.DownloadInput{AccountID: "acc_check"})
		require.NoError(t, err)

		_, err = e.importUC.Import(ctx, usecase.ImportInput{Path: download.Path})
		assert.ErrorIs(t, err, usecase.ErrUnmappedAccount)
	})

	t.Run("foreign file refuses to import", func(t *testing.T) {
		e := newEnv(t, map[string]string{"acc_check": "Assets:Checking"})

		foreign := filepath.Join(t.TempDir(), "foreign.json")
		require.NoError(t, os.WriteFile(foreign, []byte(`{"some":"json"}`), 0o644))

		_, err := e.importUC.Import(ctx, usecase.ImportInput{Path: foreign})
		assert.ErrorIs(t, err, snapshot.ErrBadSnapshot)
	})

	t.Run("unknown account download reports not found", func(t *testing.T) {
		e := newEnv(t, map[string]string{"acc_check": "Assets:Checking"})

		_, err := e.downloadUC.Download(ctx, usecase.DownloadInput{AccountID: "acc_ghost"})
		assert.ErrorIs(t, err, teller.ErrNotFound)
	})

	t.Run("record with a bad date refuses to import", func(t *testing.T) {
		e := newEnv(t, map[string]string{"acc_check": "Assets:Checking"})
		e.feed.AddAccount(
			testutil.CheckingAccount("acc_check"),
			teller.Balances{AccountID: "acc_check", Ledger: "10.00", Available: "10.00"},
			[]teller.Transaction{
				testutil.PostedTransaction("txn_1", "acc_check", "first of March", "10.00", "Deposit"),
			},
		)

		download, err := e.downloadUC.Download(ctx, usecase.DownloadInput{AccountID: "acc_check"})
		require.NoError(t, err)

		_, err = e.importUC.Import(ctx, usecase.ImportInput{Path: download.Path})
		assert.ErrorIs(t, err, domain.ErrUnparsableDate)
	})

	t.Run("restated balance appends a fresh assertion", func(t *testing.T) {
		e := newEnv(t, map[string]string{"acc_check": "Assets:Checking"})
		e.feed.AddAccount(
			testutil.CheckingAccount("acc_check"),
			teller.Balances{AccountID: "acc_check", Ledger: "10.00", Available: "10.00"},
			[]teller.Transaction{
				testutil.PostedTransaction("txn_1", "acc_check", "2025-03-01", "10.00", "Deposit"),
			},
		)

		first, err := e.syncUC.Sync(ctx, "acc_check")
		require.NoError(t, err)
		assert.Equal(t, 1, first.Import.Imported)
		assert.Equal(t, 1, first.Import.Assertions)

		// Same activity, restated balance: only the assertion is new.
		e.feed.SetBalances("acc_check",
			teller.Balances{AccountID: "acc_check", Ledger: "10.25", Available: "10.25"})

		second, err := e.syncUC.Sync(ctx, "acc_check")
		require.NoError(t, err)
		assert.Equal(t, 0, second.Import.Imported)
		assert.Equal(t, 1, second.Import.Duplicates)
		assert.Equal(t, 1, second.Import.Assertions)

		assertions, err := e.store.Assertions(ctx)
		require.NoError(t, err)
		assert.Len(t, assertions, 2)
	})

	t.Run("empty snapshot imports nothing", func(t *testing.T) {
		e := newEnv(t, map[string]string{"acc_check": "Assets:Checking"})
		e.feed.AddAccount(
			testutil.CheckingAccount("acc_check"),
			teller.Balances{AccountID: "acc_check", Ledger: "0.00", Available: "0.00"},
			nil,
		)

		result, err := e.syncUC.Sync(ctx, "acc_check")
		require.NoError(t, err)
		assert.Equal(t, 0, result.Import.Imported)
		assert.Equal(t, 0, result.Import.Assertions)

		entries, err := e.store.Entries(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
