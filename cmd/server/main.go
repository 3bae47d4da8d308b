package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/searchos/dataview/internal/config"
	"github.com/searchos/dataview/internal/domain/activity"
	"github.com/searchos/dataview/internal/domain/dataset"
	"github.com/searchos/dataview/internal/domain/ingest"
	"github.com/searchos/dataview/internal/domain/project"
	"github.com/searchos/dataview/internal/domain/query"
	"github.com/searchos/dataview/internal/domain/view"
	"github.com/searchos/dataview/internal/parquet"
	"github.com/searchos/dataview/internal/sqlite"
	"github.com/searchos/dataview/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	store, err := parquet.NewStore(cfg.Data.Dir, cfg.Data.GroupKeyColumn)
	if err != nil {
		logger.Error("failed to open data directory", "error", err)
		os.Exit(1)
	}

	if err := ensureDBDir(cfg.Data.ActivityDBPath); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}
	db, err := sqlite.New(cfg.Data.ActivityDBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	cache := query.NewResultCache(cfg.Cache.Capacity)
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	viewSvc := view.NewService(store.Tables(), store.Schemas(), cache, activitySvc, logger)

	router := transport.NewServer(transport.Config{
		Services: transport.Services{
			Projects: project.NewService(store.Projects(), store.Schemas(), cache, activitySvc, logger),
			Views:    viewSvc,
			Data:     dataset.NewService(store.Tables(), store.Schemas(), cache, activitySvc, logger),
			Queries:  query.NewService(viewSvc, cache, logger),
			Activity: activitySvc,
		},
		Consolidate: ingest.Options{GroupKeyColumn: cfg.Data.GroupKeyColumn},
		Logger:      logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "data_dir", cfg.Data.Dir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
