package main

import (
	"fmt"
	"os"
	"time"
)

// Config собирает настройки сервера из переменных окружения
type Config struct {
	Addr      string
	DBPath    string
	JWTSecret string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SessionTTL      time.Duration

	// Лимит на login и refresh, запросов на IP в окно
	AuthRateLimit  int
	AuthRateWindow time.Duration

	CleanupInterval time.Duration

	// BootstrapAdmin создает администратора по умолчанию, когда база пуста
	BootstrapAdmin         bool
	BootstrapAdminUser     string
	BootstrapAdminPassword string
}

// devJWTSecret используется только когда AUTHKEEPER_JWT_SECRET не задан
const devJWTSecret = "insecure-dev-secret-do-not-use-in-production"

func loadConfig() (*Config, error) {
	cfg := &Config{
		Addr:      envOr("AUTHKEEPER_ADDR", ":8080"),
		DBPath:    envOr("AUTHKEEPER_DB_PATH", "authkeeper.db"),
		JWTSecret: os.Getenv("AUTHKEEPER_JWT_SECRET"),

		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		SessionTTL:      7 * 24 * time.Hour,

		AuthRateLimit:  10,
		AuthRateWindow: time.Minute,

		CleanupInterval: time.Hour,

		BootstrapAdmin:         envOr("AUTHKEEPER_BOOTSTRAP_ADMIN", "1") != "0",
		BootstrapAdminUser:     envOr("AUTHKEEPER_BOOTSTRAP_ADMIN_USER", "admin"),
		BootstrapAdminPassword: envOr("AUTHKEEPER_BOOTSTRAP_ADMIN_PASSWORD", "admin123"),
	}

	if v := os.Getenv("AUTHKEEPER_ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTHKEEPER_ACCESS_TOKEN_TTL: %w", err)
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("AUTHKEEPER_REFRESH_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTHKEEPER_REFRESH_TOKEN_TTL: %w", err)
		}
		cfg.RefreshTokenTTL = d
	}

	if v := os.Getenv("AUTHKEEPER_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTHKEEPER_SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
