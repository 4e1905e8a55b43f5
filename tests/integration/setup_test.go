package integration

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	adapterhttp "github.com/iho/bankfeed/internal/adapter/http"
	"github.com/iho/bankfeed/internal/adapter/http/handler"
	"github.com/iho/bankfeed/internal/adapter/ledger"
	"github.com/iho/bankfeed/internal/adapter/snapshot"
	"github.com/iho/bankfeed/internal/usecase"
	"github.com/iho/bankfeed/tests/testutil"
)

// env is one fully wired pipeline over a stub provider and temp storage.
type env struct {
	feed       *testutil.TestFeed
	dataDir    string
	ledgerPath string

	snapshots *snapshot.Store
	store     *ledger.Store

	accountUC  *usecase.AccountUseCase
	downloadUC *usecase.DownloadUseCase
	importUC   *usecase.ImportUseCase
	syncUC     *usecase.SyncUseCase
}

func newEnv(t *testing.T, accounts map[string]string) *env {
	t.Helper()

	feed := testutil.NewTestFeed(t)
	client := feed.Client(t)

	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	ledgerPath := filepath.Join(dir, "ledger.jsonl")

	ids := ledger.NewULIDGenerator()
	snapshots := snapshot.NewStore(dataDir)
	store := ledger.NewStore(ledgerPath, "Expenses:Unassigned", ids)

	downloadUC := usecase.NewDownloadUseCase(client, snapshots, nil)
	importUC := usecase.NewImportUseCase(snapshots, store, ids, accounts, nil, nil)

	return &env{
		feed:       feed,
		dataDir:    dataDir,
		ledgerPath: ledgerPath,
		snapshots:  snapshots,
		store:      store,
		accountUC:  usecase.NewAccountUseCase(client, accounts),
		downloadUC: downloadUC,
		importUC:   importUC,
		syncUC:     usecase.NewSyncUseCase(downloadUC, importUC, accounts, nil),
	}
}

// newServer exposes the env through the full HTTP stack.
func newServer(t *testing.T, e *env) *httptest.Server {
	t.Helper()

	router := adapterhttp.NewRouter(adapterhttp.RouterConfig{
		Logger:         zerolog.Nop(),
		AccountHandler: handler.NewAccountHandler(e.accountUC),
		ImportHandler:  handler.NewImportHandler(e.downloadUC, e.importUC, e.syncUC),
		HealthHandler:  handler.NewHealthHandler(e.dataDir, e.ledgerPath),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}
