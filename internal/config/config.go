package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DatabaseURL     string
	TelegramToken   string
	WebappURL       string
	BotEnabled      bool
	AccrualInterval time.Duration
	SeedCatalog     bool
	DBMaxConns      int32
}

// Load reads configuration from the environment, picking up a local
// .env file first if one exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	addr := strings.TrimSpace(os.Getenv("PORT"))
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("MAGNATE_ADDR", ":8080")
	}

	cfg := Config{
		Addr:            addr,
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TelegramToken:   strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		WebappURL:       strings.TrimSpace(os.Getenv("WEBAPP_URL")),
		BotEnabled:      envBoolDefault("MAGNATE_BOT_ENABLED", true),
		AccrualInterval: envDurationDefault("MAGNATE_ACCRUAL_INTERVAL", time.Minute),
		SeedCatalog:     envBoolDefault("MAGNATE_SEED_CATALOG", true),
		DBMaxConns:      int32(envIntDefault("MAGNATE_DB_MAX_CONNS", 20)),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.BotEnabled && cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_BOT_TOKEN is required unless MAGNATE_BOT_ENABLED=false")
	}
	return cfg, nil
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadCLI() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("MAGNATE_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
