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

	"github.com/lysyi3m/story-comb/app/api"
	"github.com/lysyi3m/story-comb/app/cfg"
	"github.com/lysyi3m/story-comb/app/database"
	"github.com/lysyi3m/story-comb/app/feed"
	"github.com/lysyi3m/story-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(appCfg); err != nil {
		slog.Error("Story Comb stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting Story Comb", "version", appCfg.Version)

	if err := os.MkdirAll(filepath.Dir(appCfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load feed configurations: %w", err)
	}
	slog.Info("Feed configurations loaded", "dir", appCfg.FeedsDir, "count", configCache.GetConfigCount())

	feedRepo := database.NewFeedRepository(db)
	storyRepo := database.NewStoryRepository(db)
	userStoryRepo := database.NewUserStoryRepository(db)

	deps := &tasks.Deps{
		FeedRepo:   feedRepo,
		Fetcher:    feed.NewFetcher(appCfg.UserAgent),
		Parser:     feed.NewParser(),
		Classifier: feed.NewClassifier(storyRepo, database.NewAuthorRepository(db), database.NewTagRepository(db)),
		Trimmer:    feed.NewTrimmer(storyRepo, userStoryRepo),
	}

	scheduler := tasks.NewScheduler(configCache, deps,
		time.Duration(appCfg.SchedulerInterval)*time.Second,
		time.Duration(appCfg.TrimInterval)*time.Second,
		appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started", "workers", appCfg.WorkerCount,
		"interval", appCfg.SchedulerInterval, "trim_interval", appCfg.TrimInterval)

	handler := api.NewHandler(configCache, feedRepo, storyRepo, userStoryRepo, scheduler, deps)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	return runErr
}
