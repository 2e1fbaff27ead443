package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blrtoday/eventpipe/app/api"
	"github.com/blrtoday/eventpipe/app/cfg"
	"github.com/blrtoday/eventpipe/app/consolidate"
	"github.com/blrtoday/eventpipe/app/database"
	"github.com/blrtoday/eventpipe/app/geocode"
	"github.com/blrtoday/eventpipe/app/load"
	"github.com/blrtoday/eventpipe/app/normalize"
	"github.com/blrtoday/eventpipe/app/pipeline"
	"github.com/blrtoday/eventpipe/app/sources"
	"github.com/blrtoday/eventpipe/app/tasks"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if c == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("Starting eventpipe", "version", c.Version, "serve", c.Serve)

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", c.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", c.DBPath, "schema_version", version, "dirty", dirty)

	configCache := sources.NewConfigCache(c.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", c.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount())

	lexicon, err := normalize.LoadLexicon(c.LexiconFile)
	if err != nil {
		slog.Error("Failed to load lexicon", "file", c.LexiconFile, "error", err)
		os.Exit(1)
	}

	normalizer := normalize.New(lexicon)
	consolidator := consolidate.NewConsolidator()
	eventRepo := database.NewEventRepository(db)

	geocoder := geocode.NewClient(c.GeocoderURL, c.GeocoderAPIKey, c.UserAgent, &http.Client{
		Timeout: 15 * time.Second,
	})

	loader := load.NewLoader(geocoder, eventRepo, load.Options{
		SkipGeocoding:    c.SkipGeocoding,
		CrossSourceDedup: c.CrossSourceDedup,
		RegionContext:    c.GeocodeRegion,
		WorkerCount:      c.WorkerCount,
	})

	runner := pipeline.NewRunner(configCache, normalizer, consolidator, loader, c.DataDir, pipeline.Options{
		SkipNormalize:   c.SkipNormalize,
		SkipConsolidate: c.SkipConsolidate,
		SkipLoad:        c.SkipLoad,
	})

	if !c.Serve {
		runOnce(runner)
		return
	}

	serve(c, runner, eventRepo, configCache)
}

// runOnce executes a single batch pipeline run, for cron-style usage.
func runOnce(runner *pipeline.Runner) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := runner.Run(ctx)
	if err != nil {
		// Run logs its own report on success but returns before
		// logging on a fatal error, so emit it here.
		if report != nil {
			report.Log()
		}
		slog.Error("Pipeline run failed", "error", err)
		os.Exit(1)
	}
}

// serve runs the background scheduler and the catalog HTTP API until
// interrupted.
func serve(c *cfg.Cfg, runner *pipeline.Runner, eventRepo *database.EventRepository,
	configCache *sources.ConfigCache) {
	scheduler := tasks.NewScheduler(runner)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "interval_seconds", c.SchedulerInterval)

	apiHandler := api.NewHandler(eventRepo, configCache, runner, scheduler)
	server := api.NewServer(apiHandler, c.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}
