package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"magnate/internal/api"
	"magnate/internal/bot"
	"magnate/internal/config"
	"magnate/internal/db"
	"magnate/internal/game"
	"magnate/internal/notify"
	"magnate/internal/push"
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

	accounts := store.NewPostgresAccounts(pool)
	catalog := store.NewPostgresCatalog(pool)
	svc := game.NewService(accounts, catalog, logger)

	if cfg.SeedCatalog {
		if err := svc.SeedCatalog(ctx); err != nil {
			logger.Error("catalog seed failed", "err", err)
			os.Exit(1)
		}
	}

	registry := push.NewRegistry(logger)

	var gateway notify.Gateway
	if cfg.BotEnabled {
		tg, err := bot.New(cfg.TelegramToken, cfg.WebappURL, svc, logger)
		if err != nil {
			logger.Error("telegram init failed", "err", err)
			os.Exit(1)
		}
		gateway = tg
		go tg.Run(ctx)
	}

	dispatcher := notify.NewDispatcher(accounts, gateway, registry, logger)
	server := api.New(cfg, logger, svc, registry, dispatcher)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("api listening", "addr", cfg.Addr, "bot", cfg.BotEnabled)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serve failed", "err", err)
		os.Exit(1)
	}
	logger.Info("api shutdown")
}
