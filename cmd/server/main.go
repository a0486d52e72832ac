package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"provenant/internal/ledger"
	"provenant/internal/mirror"
	"provenant/internal/passport"
	"provenant/internal/passport/handler"
	"provenant/internal/platform/config"
	"provenant/internal/platform/httpserver"
	"provenant/internal/platform/logger"
	platformredis "provenant/internal/platform/redis"
	"provenant/internal/reconcile"
	reconcilemetrics "provenant/internal/reconcile/metrics"
	httptransport "provenant/internal/transport/http"
	"provenant/internal/trust"
	"provenant/internal/verify"
	verifymetrics "provenant/internal/verify/metrics"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	client := ledger.New(cfg.LedgerBaseURL, ledger.WithLogger(log))
	health := ledger.NewHealthMonitor(client.Health, cfg.HealthRecheckInterval, cfg.HealthProbeTimeout,
		ledger.WithHealthLogger(log))

	store := mirror.NewInMemory()
	snapshots := pickSnapshotStore(cfg, log)

	ctx := context.Background()
	if snap, err := snapshots.Load(ctx); err != nil {
		log.Warn("snapshot load failed, starting empty", "error", err)
	} else if err := store.Restore(ctx, snap); err != nil {
		log.Warn("snapshot restore failed, starting empty", "error", err)
	}

	buffer := mirror.NewWriteBuffer(store, snapshots, cfg.SnapshotDebounce, mirror.WithBufferLogger(log))

	cache := reconcile.NewCache(cfg.CacheTTL)
	view := reconcile.New(client, health, store, cache,
		reconcile.WithLogger(log),
		reconcile.WithMetrics(reconcilemetrics.New()),
	)

	verifier := verify.New(client, verify.WithLogger(log), verify.WithMetrics(verifymetrics.New()))
	engine := trust.NewEngine(view, store, verifier, trust.WithLogger(log))
	writer := passport.New(store, buffer, view, passport.WithLogger(log))

	h := handler.New(view, writer, engine, verifier, log)
	router := httptransport.NewRouter(h, health)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting provenant", "addr", cfg.Addr, "ledger", cfg.LedgerBaseURL)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := buffer.Close(shutdownCtx); err != nil {
		log.Error("final snapshot flush failed", "error", err)
	}
}

// pickSnapshotStore chooses the snapshot backend: postgres, then redis, then
// the local file default.
func pickSnapshotStore(cfg config.Config, log *slog.Logger) mirror.SnapshotStore {
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Warn("postgres unavailable, falling back to file snapshots", "error", err)
		} else {
			return mirror.NewPostgresSnapshotStore(db, "dashboard")
		}
	}
	if cfg.Redis.URL != "" {
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, falling back to file snapshots", "error", err)
		} else if client != nil {
			return mirror.NewRedisSnapshotStore(client.Client)
		}
	}
	return mirror.NewFileSnapshotStore(cfg.SnapshotPath)
}
