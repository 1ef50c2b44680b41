package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/magnate")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("PORT", "")
	t.Setenv("MAGNATE_ADDR", "")
	t.Setenv("MAGNATE_ACCRUAL_INTERVAL", "")
	t.Setenv("MAGNATE_BOT_ENABLED", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.Addr)
	}
	if cfg.AccrualInterval != time.Minute {
		t.Fatalf("interval = %v, want 1m", cfg.AccrualInterval)
	}
	if !cfg.BotEnabled || !cfg.SeedCatalog {
		t.Fatalf("bot and seeding should default on")
	}
	if cfg.DBMaxConns != 20 {
		t.Fatalf("max conns = %d, want 20", cfg.DBMaxConns)
	}
}

func TestLoadPortOverridesAddr(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/magnate")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("PORT", "9001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9001" {
		t.Fatalf("addr = %q, want :9001", cfg.Addr)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadBotTokenOptionalWhenDisabled(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/magnate")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("MAGNATE_BOT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BotEnabled {
		t.Fatal("bot should be disabled")
	}
}

func TestLoadCLITrimsTrailingSlash(t *testing.T) {
	t.Setenv("MAGNATE_API_BASE_URL", "http://api.example.com/")
	cfg := LoadCLI()
	if cfg.APIBaseURL != "http://api.example.com" {
		t.Fatalf("got %q", cfg.APIBaseURL)
	}
}
