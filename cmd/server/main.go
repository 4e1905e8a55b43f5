package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/bankfeed/internal/adapter/http"
	"github.com/iho/bankfeed/internal/adapter/http/handler"
	"github.com/iho/bankfeed/internal/adapter/http/middleware"
	"github.com/iho/bankfeed/internal/adapter/ledger"
	"github.com/iho/bankfeed/internal/adapter/snapshot"
	"github.com/iho/bankfeed/internal/adapter/teller"
	"github.com/iho/bankfeed/internal/infrastructure/config"
	"github.com/iho/bankfeed/internal/infrastructure/logger"
	"github.com/iho/bankfeed/internal/infrastructure/metrics"
	"github.com/iho/bankfeed/internal/infrastructure/syncer"
	"github.com/iho/bankfeed/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot := bootstrapLogger()
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.ValidateFeed(); err != nil {
		log.Fatal().Err(err).Msg("incomplete feed configuration")
	}

	// Feed client
	feed, err := teller.NewClient(teller.Config{
		BaseURL:     cfg.TellerBaseURL,
		CertFile:    cfg.TellerCertFile,
		KeyFile:     cfg.TellerKeyFile,
		AccessToken: cfg.TellerAccessToken,
		Timeout:     cfg.TellerTimeout,
		MaxRetries:  cfg.TellerMaxRetries,
		Logger:      log.With().Str("component", "teller").Logger(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build feed client")
	}

	// Stores
	snapshots := snapshot.NewStore(cfg.DataDir)
	ids := ledger.NewULIDGenerator()
	ledgerStore := ledger.NewStore(cfg.LedgerFile, cfg.UnassignedAccount, ids)

	m := metrics.New()

	// Use cases
	accountUC := usecase.NewAccountUseCase(feed, cfg.Accounts)
	downloadUC := usecase.NewDownloadUseCase(feed, snapshots, m)
	importUC := usecase.NewImportUseCase(snapshots, ledgerStore, ids, cfg.Accounts, cfg.DateGate(), m)
	syncUC := usecase.NewSyncUseCase(downloadUC, importUC, cfg.Accounts, m)

	// Router
	routerCfg := httpAdapter.RouterConfig{
		Logger:         log,
		AccountHandler: handler.NewAccountHandler(accountUC),
		ImportHandler:  handler.NewImportHandler(downloadUC, importUC, syncUC),
		HealthHandler:  handler.NewHealthHandler(cfg.DataDir, cfg.LedgerFile),
	}
	if cfg.ServerRateLimit > 0 {
		routerCfg.RateLimiter = middleware.NewRateLimiter(cfg.ServerRateLimit, cfg.ServerRateBurst)
	}
	router := httpAdapter.NewRouter(routerCfg)

	server := newHTTPServer(cfg, router)

	// Background sync loop
	syncCtx, cancelSync := context.WithCancel(context.Background())
	defer cancelSync()

	if cfg.SyncInterval > 0 {
		loop := syncer.New(syncer.Config{
			Sync:     syncUC,
			Logger:   log,
			Interval: cfg.SyncInterval,
		})
		go func() {
			if err := loop.Start(syncCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("sync loop stopped")
			}
		}()
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", cfg.ServerAddr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	cancelSync()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// newHTTPServer builds the http.Server from config.
func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      h,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}
}

// bootstrapLogger covers the window before configuration is loaded.
func bootstrapLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
