package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/streetpass/internal/adapter/driven/fediverse"
	"github.com/ericfisherdev/streetpass/internal/adapter/driven/presenter"
	redisadapter "github.com/ericfisherdev/streetpass/internal/adapter/driven/redis"
	sqliteadapter "github.com/ericfisherdev/streetpass/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/streetpass/internal/adapter/driving/http"
	"github.com/ericfisherdev/streetpass/internal/application"
	"github.com/ericfisherdev/streetpass/internal/config"
	"github.com/ericfisherdev/streetpass/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"store_backend", cfg.StoreBackend,
		"http_timeout", cfg.HTTPTimeout,
		"http_cache_entries", cfg.HTTPCacheEntries,
		"refresh_interval", cfg.RefreshInterval,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the key-value store.
	kv, closeKV, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeKV(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()

	// 4. Wire adapters.
	resolver, err := fediverse.NewResolver(cfg.HTTPTimeout, cfg.HTTPCacheEntries, cfg.BlueskyAPIURL, slog.Default())
	if err != nil {
		return err
	}
	registry := application.NewSlotRegistry(kv, slog.Default())

	// 5. Create services. The icon is redrawn from persisted state first.
	iconSvc := application.NewIconService(registry, presenter.NewLogIconPresenter(slog.Default()), slog.Default())
	iconSvc.Resync(ctx)

	hrefSvc := application.NewHrefService(registry, resolver, iconSvc, slog.Default())
	if removed := hrefSvc.PurgeExpiredNegatives(ctx); removed > 0 {
		slog.Info("expired negative records purged", "count", removed)
	}

	// 6. Start the refresh loop (periodic sweeps only when an interval is set).
	refreshSvc := application.NewRefreshService(hrefSvc, cfg.RefreshInterval, cfg.RefreshStaleAfter, slog.Default())
	go refreshSvc.Start(ctx)

	// 7. Create HTTP handler, register API routes, apply middleware.
	apiHandler := httphandler.NewHandler(hrefSvc, iconSvc, refreshSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.HTTPTimeout*4 + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("streetpass started",
		"listen_addr", cfg.ListenAddr,
		"store_backend", cfg.StoreBackend,
	)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout for in-flight resolutions.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openStore opens the configured backend and returns it with its close func.
func openStore(ctx context.Context, cfg *config.Config) (driven.KVStore, func() error, error) {
	if cfg.UsesRedis() {
		store, err := redisadapter.Dial(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("redis connected", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		return store, store.Close, nil
	}

	// Dual reader/writer with WAL mode.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("database opened", "path", cfg.DBPath)

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrating %s: %w", cfg.DBPath, err)
	}
	slog.Info("migrations complete", "version", version)

	return sqliteadapter.NewKVRepo(db), db.Close, nil
}
