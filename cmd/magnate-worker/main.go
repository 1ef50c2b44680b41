package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"magnate/internal/config"
	"magnate/internal/db"
	"magnate/internal/game"
	"magnate/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	svc := game.NewService(store.NewPostgresAccounts(pool), store.NewPostgresCatalog(pool), logger)
	clock := game.NewClock(svc, cfg.AccrualInterval)

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("MAGNATE_WORKER_RUN_ONCE")), "true")
	if runOnce {
		if !clock.Tick(ctx) {
			logger.Error("tick dropped")
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	clock.Run(ctx)
	logger.Info("worker shutdown")
}
