package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/echoform/internal/api"
	"github.com/Harshitk-cp/echoform/internal/buildconfig"
	"github.com/Harshitk-cp/echoform/internal/config"
	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/Harshitk-cp/echoform/internal/store"
	"github.com/Harshitk-cp/echoform/internal/store/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = config.Load()

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	logger.Info("starting echoform",
		zap.String("version", buildconfig.Version()),
		zap.String("commit", buildconfig.Commit()))

	ctx := context.Background()

	var (
		beliefs domain.BeliefStore
		cache   domain.EmbeddingCache
	)
	switch driver := config.StorageDriver(); driver {
	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required")
		}

		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		if err := store.Migrate(ctx, pool, config.MigrationsPath(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		beliefs = store.NewBeliefStore(pool)
		cache = store.NewEmbeddingCacheStore(pool)

	case "sqlite":
		path := config.SQLitePath()
		st, err := sqlite.Open(path)
		if err != nil {
			logger.Fatal("failed to open sqlite database", zap.String("path", path), zap.Error(err))
		}
		defer func() { _ = st.Close() }()
		logger.Info("opened sqlite database", zap.String("path", path))
		beliefs, cache = st, st

	default:
		logger.Fatal("unknown STORAGE_DRIVER (valid options: postgres, sqlite)", zap.String("driver", driver))
	}

	app, err := api.NewApp(beliefs, cache, logger)
	if err != nil {
		logger.Fatal("failed to build app", zap.Error(err))
	}

	app.Drift.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	app.Drift.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
