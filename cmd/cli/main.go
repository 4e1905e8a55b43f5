package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/bankfeed/internal/adapter/ledger"
	"github.com/iho/bankfeed/internal/adapter/snapshot"
	"github.com/iho/bankfeed/internal/adapter/teller"
	"github.com/iho/bankfeed/internal/infrastructure/config"
	"github.com/iho/bankfeed/internal/infrastructure/logger"
	"github.com/iho/bankfeed/internal/usecase"
)

func main() {
	rootCmd := buildRootCmd(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app wires configuration, the feed client, and the pipelines for one
// invocation. The feed client is only built for commands that reach the
// API, so local imports work without credentials.
type app struct {
	cfg *config.Config
	log zerolog.Logger
	out io.Writer

	feed *teller.Client
}

func newApp(out io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	return &app{cfg: cfg, log: log, out: out}, nil
}

func (a *app) feedClient() (*teller.Client, error) {
	if a.feed != nil {
		return a.feed, nil
	}

	if err := a.cfg.ValidateFeed(); err != nil {
		return nil, err
	}

	feed, err := teller.NewClient(teller.Config{
		BaseURL:     a.cfg.TellerBaseURL,
		CertFile:    a.cfg.TellerCertFile,
		KeyFile:     a.cfg.TellerKeyFile,
		AccessToken: a.cfg.TellerAccessToken,
		Timeout:     a.cfg.TellerTimeout,
		MaxRetries:  a.cfg.TellerMaxRetries,
		Logger:      a.log.With().Str("component", "teller").Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("build feed client: %w", err)
	}

	a.feed = feed
	return feed, nil
}

func (a *app) snapshotStore() *snapshot.Store {
	return snapshot.NewStore(a.cfg.DataDir)
}

func (a *app) importUseCase() *usecase.ImportUseCase {
	ids := ledger.NewULIDGenerator()
	store := ledger.NewStore(a.cfg.LedgerFile, a.cfg.UnassignedAccount, ids)
	return usecase.NewImportUseCase(a.snapshotStore(), store, ids, a.cfg.Accounts, a.cfg.DateGate(), nil)
}

func (a *app) downloadUseCase() (*usecase.DownloadUseCase, error) {
	feed, err := a.feedClient()
	if err != nil {
		return nil, err
	}
	return usecase.NewDownloadUseCase(feed, a.snapshotStore(), nil), nil
}

func (a *app) syncUseCase() (*usecase.SyncUseCase, error) {
	download, err := a.downloadUseCase()
	if err != nil {
		return nil, err
	}
	return usecase.NewSyncUseCase(download, a.importUseCase(), a.cfg.Accounts, nil), nil
}

func buildRootCmd(out io.Writer) *cobra.Command {
	var a *app

	rootCmd := &cobra.Command{
		Use:   "bankfeed",
		Short: "Sync bank accounts into a plain-text ledger",
		Long: `bankfeed pulls accounts and transactions from the Teller API, stores
them as snapshot files, and imports them into a ledger file without
duplicating entries already present.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(out)
			return err
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "institutions",
		Short: "List institutions reachable through the feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := a.feedClient()
			if err != nil {
				return err
			}

			institutions, err := feed.ListInstitutions(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, inst := range institutions {
				fmt.Fprintf(w, "%s\t%s\n", inst.ID, inst.Name)
			}
			return w.Flush()
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "identity",
		Short: "Show the enrollment's identity document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := a.feedClient()
			if err != nil {
				return err
			}

			raw, err := feed.Identity(cmd.Context())
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(a.out, pretty.String())
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "accounts",
		Short: "List enrolled accounts and their ledger mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := a.feedClient()
			if err != nil {
				return err
			}

			infos, err := usecase.NewAccountUseCase(feed, a.cfg.Accounts).ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tCURRENCY\tLEDGER ACCOUNT")
			for _, info := range infos {
				target := info.LedgerAccount
				if !info.Mapped {
					target = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					info.Account.ID, info.Account.Name, info.Account.Type, info.Account.Currency, target)
			}
			return w.Flush()
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "account <account-id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := a.feedClient()
			if err != nil {
				return err
			}

			account, err := feed.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "ID:          %s\n", account.ID)
			fmt.Fprintf(a.out, "Name:        %s\n", account.Name)
			fmt.Fprintf(a.out, "Type:        %s/%s\n", account.Type, account.Subtype)
			fmt.Fprintf(a.out, "Currency:    %s\n", account.Currency)
			fmt.Fprintf(a.out, "Status:      %s\n", account.Status)
			fmt.Fprintf(a.out, "Last four:   %s\n", account.LastFour)
			fmt.Fprintf(a.out, "Institution: %s\n", account.Institution.Name)
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "balances <account-id>",
		Short: "Show an account's live balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := a.feedClient()
			if err != nil {
				return err
			}

			balances, err := feed.AccountBalances(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Ledger:    %s\n", balances.Ledger)
			fmt.Fprintf(a.out, "Available: %s\n", balances.Available)
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "details <account-id>",
		Short: "Show an account's number and routing numbers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := a.feedClient()
			if err != nil {
				return err
			}

			details, err := feed.AccountDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Account number: %s\n", details.AccountNumber)
			if details.RoutingNumbers.ACH != "" {
				fmt.Fprintf(a.out, "ACH routing:    %s\n", details.RoutingNumbers.ACH)
			}
			if details.RoutingNumbers.Wire != "" {
				fmt.Fprintf(a.out, "Wire routing:   %s\n", details.RoutingNumbers.Wire)
			}
			if details.RoutingNumbers.BACS != "" {
				fmt.Fprintf(a.out, "BACS routing:   %s\n", details.RoutingNumbers.BACS)
			}
			return nil
		},
	})

	var txnCount int
	var txnFromID string
	transactionsCmd := &cobra.Command{
		Use:   "transactions <account-id>",
		Short: "List an account's transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := a.feedClient()
			if err != nil {
				return err
			}

			transactions, err := feed.ListTransactions(cmd.Context(), args[0], teller.TransactionsOptions{
				Count:  txnCount,
				FromID: txnFromID,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tSTATUS\tDESCRIPTION")
			for _, txn := range transactions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", txn.ID, txn.Date, txn.Amount, txn.Status, txn.Description)
			}
			return w.Flush()
		},
	}
	transactionsCmd.Flags().IntVar(&txnCount, "count", 0, "Maximum transactions to fetch")
	transactionsCmd.Flags().StringVar(&txnFromID, "from-id", "", "Fetch transactions before this transaction id")
	rootCmd.AddCommand(transactionsCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "delete-account <account-id>",
		Short: "Disconnect an account from the enrollment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := a.feedClient()
			if err != nil {
				return err
			}

			if err := feed.DeleteAccount(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "account %s disconnected\n", args[0])
			return nil
		},
	})

	var downloadAll bool
	downloadCmd := &cobra.Command{
		Use:   "download [<account-id>]",
		Short: "Fetch feed state into snapshot files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if downloadAll == (len(args) == 1) {
				return fmt.Errorf("either an account id or --all is required")
			}

			download, err := a.downloadUseCase()
			if err != nil {
				return err
			}

			var results []*usecase.DownloadResult
			if downloadAll {
				results, err = download.DownloadAll(cmd.Context())
			} else {
				var result *usecase.DownloadResult
				result, err = download.Download(cmd.Context(), usecase.DownloadInput{AccountID: args[0]})
				results = append(results, result)
			}
			if err != nil {
				return err
			}

			for _, result := range results {
				fmt.Fprintf(a.out, "%s: %d transactions -> %s\n", result.AccountName, result.Transactions, result.Path)
			}
			return nil
		},
	}
	downloadCmd.Flags().BoolVar(&downloadAll, "all", false, "Download every visible account")
	rootCmd.AddCommand(downloadCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "import <snapshot>...",
		Short: "Import snapshot files into the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imports := a.importUseCase()
			snapshots := a.snapshotStore()

			for _, path := range args {
				if !snapshots.Identify(path) {
					a.log.Warn().Str("path", path).Msg("not a snapshot file, skipping")
					continue
				}

				result, err := imports.Import(cmd.Context(), usecase.ImportInput{Path: path})
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}

				fmt.Fprintf(a.out, "%s: %s: %d imported, %d duplicates, %d assertions\n",
					result.Path, result.Account, result.Imported, result.Duplicates, result.Assertions)
			}
			return nil
		},
	})

	var syncAll bool
	syncCmd := &cobra.Command{
		Use:   "sync [<account-id>]",
		Short: "Download and import in one step",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if syncAll == (len(args) == 1) {
				return fmt.Errorf("either an account id or --all is required")
			}

			sync, err := a.syncUseCase()
			if err != nil {
				return err
			}

			var results []*usecase.SyncResult
			if syncAll {
				results, err = sync.SyncAll(cmd.Context())
			} else {
				var result *usecase.SyncResult
				result, err = sync.Sync(cmd.Context(), args[0])
				results = append(results, result)
			}
			if err != nil {
				return err
			}

			for _, result := range results {
				fmt.Fprintf(a.out, "%s: %d transactions, %d imported, %d duplicates\n",
					result.Download.AccountName, result.Download.Transactions,
					result.Import.Imported, result.Import.Duplicates)
			}
			return nil
		},
	}
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "Sync every mapped account")
	rootCmd.AddCommand(syncCmd)

	return rootCmd
}
