package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"

	"github.com/mmynk/treasurer/internal/api"
	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/config"
	"github.com/mmynk/treasurer/internal/service"
	"github.com/mmynk/treasurer/internal/storage/sqlite"
	"github.com/mmynk/treasurer/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		slog.Error("Failed to create data directory", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	sessions := service.NewSessions(store, cfg.SaveDebounce)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, sessions)

	router := api.NewRouter(authSvc, sessions, jwtManager, store, api.Options{
		MaxImportBytes: cfg.ImportMaxBytes,
		ImportLimiter:  rate.NewLimiter(rate.Limit(cfg.ImportRate), cfg.ImportBurst),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server starting", "address", cfg.Addr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if err := sessions.FlushAll(shutdownCtx); err != nil {
		slog.Error("Failed to save ledgers on shutdown", "error", err)
	}
}
