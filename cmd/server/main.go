package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/handlers"
	"github.com/iudanet/authkeeper/internal/server/jwt"
	"github.com/iudanet/authkeeper/internal/server/middleware"
	"github.com/iudanet/authkeeper/internal/server/storage/sqlite"
	"github.com/iudanet/authkeeper/internal/server/token"
	"github.com/iudanet/authkeeper/internal/server/users"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", "", "Listen address (overrides AUTHKEEPER_ADDR)")
	dbPath := flag.String("db", "", "SQLite database path (overrides AUTHKEEPER_DB_PATH)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	if err := run(logger, *addr, *dbPath); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addrFlag, dbPathFlag string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addrFlag != "" {
		cfg.Addr = addrFlag
	}
	if dbPathFlag != "" {
		cfg.DBPath = dbPathFlag
	}

	if cfg.JWTSecret == "" {
		logger.Warn("AUTHKEEPER_JWT_SECRET is not set, using insecure development secret")
		cfg.JWTSecret = devJWTSecret
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	jwtSvc := jwt.NewService(cfg.JWTSecret, cfg.AccessTokenTTL)

	userSvc, err := users.NewService(logger, store, store, store)
	if err != nil {
		return fmt.Errorf("failed to create user service: %w", err)
	}

	tokenSvc := token.NewService(logger, jwtSvc, store, store, store, store,
		cfg.SessionTTL, cfg.RefreshTokenTTL)

	if cfg.BootstrapAdmin {
		if err := bootstrapAdmin(ctx, logger, userSvc, cfg); err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}

	go cleanupLoop(ctx, logger, tokenSvc, cfg.CleanupInterval)

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, logger)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildRouter(logger, userSvc, tokenSvc, store, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	logger.Info("server stopped")

	return nil
}

// buildRouter собирает маршруты и цепочки middleware.
// Публичные: login, refresh, health. Остальное за Auth, управление
// пользователями дополнительно за RequireRole(admin).
func buildRouter(
	logger *slog.Logger,
	userSvc *users.Service,
	tokenSvc *token.Service,
	store *sqlite.Storage,
	limiter *middleware.RateLimiter,
) http.Handler {
	authHandler := handlers.NewAuthHandler(logger, userSvc, tokenSvc)
	userHandler := handlers.NewUserHandler(logger, userSvc)
	apiTokenHandler := handlers.NewAPITokenHandler(logger, tokenSvc)
	healthHandler := handlers.NewHealthHandler(logger, store.DB(), Version)

	authMw := middleware.Auth(logger, tokenSvc)
	// Logout проверяется без реестра сессий: повторный выход должен вернуть 204
	logoutMw := middleware.AuthStateless(logger, tokenSvc)
	adminMw := middleware.RequireRole(logger, models.RoleAdmin)
	rateMw := limiter.Middleware()

	protected := func(h http.HandlerFunc) http.Handler {
		return authMw(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMw(adminMw(h))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/auth/login", rateMw(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/v1/auth/refresh", rateMw(http.HandlerFunc(authHandler.Refresh)))
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)

	mux.Handle("POST /api/v1/auth/logout", logoutMw(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/v1/auth/me", protected(authHandler.Me))
	mux.Handle("PUT /api/v1/users/me/password", protected(authHandler.ChangePassword))

	mux.Handle("GET /api/v1/users/me/tokens", protected(apiTokenHandler.List))
	mux.Handle("POST /api/v1/users/me/tokens", protected(apiTokenHandler.Create))
	mux.Handle("DELETE /api/v1/users/me/tokens/{id}", protected(apiTokenHandler.Revoke))

	mux.Handle("GET /api/v1/users", admin(userHandler.List))
	mux.Handle("POST /api/v1/users", admin(userHandler.Create))
	mux.Handle("GET /api/v1/users/{id}", admin(userHandler.Get))
	mux.Handle("PATCH /api/v1/users/{id}", admin(userHandler.Update))
	mux.Handle("DELETE /api/v1/users/{id}", admin(userHandler.Delete))
	mux.Handle("POST /api/v1/users/{id}/reset-password", admin(userHandler.ResetPassword))

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, []string{"/api/v1/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return handler
}

// bootstrapAdmin создает администратора по умолчанию в пустой базе,
// чтобы в свежую инсталляцию можно было войти
func bootstrapAdmin(ctx context.Context, logger *slog.Logger, userSvc *users.Service, cfg *Config) error {
	list, err := userSvc.List(ctx)
	if err != nil {
		return err
	}
	if len(list) > 0 {
		return nil
	}

	admin, err := userSvc.Create(ctx, cfg.BootstrapAdminUser, cfg.BootstrapAdminPassword, models.RoleAdmin)
	if err != nil {
		return err
	}

	logger.Warn("default admin account created, change its password immediately",
		slog.String("username", admin.Username))

	return nil
}

// cleanupLoop периодически удаляет истекшие сессии и refresh токены
func cleanupLoop(ctx context.Context, logger *slog.Logger, tokenSvc *token.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := tokenSvc.DeleteExpired(ctx); err != nil {
				logger.Error("cleanup failed", slog.Any("error", err))
			}
		}
	}
}

func printVersion() {
	fmt.Printf("AuthKeeper Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
