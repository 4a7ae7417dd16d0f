package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/adapter/filesystem"
	"github.com/vertextoedge/plots-begone/internal/adapter/sqlite"
	"github.com/vertextoedge/plots-begone/internal/adapter/watcher"
	"github.com/vertextoedge/plots-begone/internal/config"
	"github.com/vertextoedge/plots-begone/internal/domain"
	"github.com/vertextoedge/plots-begone/internal/domain/event"
	"github.com/vertextoedge/plots-begone/internal/logger"
	"github.com/vertextoedge/plots-begone/internal/metrics"
	"github.com/vertextoedge/plots-begone/internal/port"
	"github.com/vertextoedge/plots-begone/internal/service/inventory"
	"github.com/vertextoedge/plots-begone/internal/service/keeper"
	"github.com/vertextoedge/plots-begone/internal/service/server"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Load configuration
	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	runID := uuid.NewString()

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, zap.String("run_id", runID)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()

	// Validate already parsed the cutoff
	cutoff, _ := cfg.Plots.GetCutoff()

	zapLogger.Info("starting plots-begone",
		zap.String("version", version),
		zap.Strings("directories", cfg.Directories),
		zap.String("extension", cfg.Plots.Extension),
		zap.Time("cutoff", cutoff),
		zap.Int("required_drives", cfg.Keeper.RequiredDrives),
	)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Event handlers
	dispatcher := event.NewInMemoryDispatcher(zapLogger)
	dispatcher.Subscribe(event.NewLoggingHandler(zapLogger))
	dispatcher.Subscribe(metrics.NewHandler(m))

	// Open journal
	var journal port.Journal
	if cfg.Journal.Path != "" {
		store, err := sqlite.Open(cfg.Journal.Path)
		if err != nil {
			zapLogger.Error("failed to open journal", zap.Error(err), zap.String("path", cfg.Journal.Path))
			return 1
		}
		defer store.Close()

		dispatcher.Subscribe(sqlite.NewJournalHandler(store, runID))
		journal = store

		if count, bytes, err := store.ReclaimedTotals(); err == nil {
			zapLogger.Info("journal opened",
				zap.String("path", cfg.Journal.Path),
				zap.Int64("plots_reclaimed", count),
				zap.Int64("bytes_reclaimed", bytes))
		}
	}

	fsManager := filesystem.NewManager()

	scanner := inventory.New(&inventory.Config{
		Extension:      cfg.Plots.Extension,
		Cutoff:         cutoff,
		RequireMount:   cfg.Keeper.RequireMount,
		MaxConcurrency: cfg.Keeper.ScanConcurrency,
	}, fsManager, zapLogger)

	fileWatcher, err := watcher.New(zapLogger)
	if err != nil {
		zapLogger.Error("failed to create file watcher", zap.Error(err))
		return 1
	}
	defer fileWatcher.Close()

	keeperService := keeper.New(&keeper.Config{
		Reserve:           cfg.Keeper.RequiredDrives,
		NewPlotSize:       cfg.Plots.GetNewPlotSize(),
		EventBuffer:       cfg.Keeper.EventBuffer,
		RecheckInterval:   cfg.Keeper.GetRecheckInterval(),
		StatusLogInterval: cfg.Keeper.GetStatusLogInterval(),
		Seed:              cfg.Keeper.Seed,
		RunID:             runID,
	}, scanner, fsManager, fileWatcher, dispatcher, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := keeperService.Bootstrap(ctx, cfg.Directories); err != nil {
		if domain.IsConfigError(err) {
			zapLogger.Error("invalid configuration", zap.Error(err))
		} else {
			zapLogger.Error("failed to build plot index", zap.Error(err))
		}
		return 1
	}

	// Start HTTP server
	var httpServer *server.Server
	if cfg.HTTP.BindAddr != "" {
		httpServer = server.New(&server.Config{
			BindAddr:     cfg.HTTP.BindAddr,
			ReadTimeout:  cfg.HTTP.GetReadTimeout(),
			WriteTimeout: cfg.HTTP.GetWriteTimeout(),
			IdleTimeout:  cfg.HTTP.GetIdleTimeout(),
			HistoryLimit: cfg.Journal.GetHistoryLimit(),
		}, keeperService, journal, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), zapLogger)

		go func() {
			if err := httpServer.Start(); err != nil {
				zapLogger.Error("HTTP server failed", zap.Error(err))
			}
		}()
	}

	// Start keeper
	keeperDone := make(chan error, 1)
	go func() {
		keeperDone <- keeperService.Run(ctx)
	}()

	zapLogger.Info("watching for new plots",
		zap.String("http_addr", cfg.HTTP.BindAddr),
		zap.String("journal", cfg.Journal.Path),
	)

	exitCode := 0
	select {
	case <-sigChan:
		zapLogger.Info("shutdown signal received, stopping services...")
		cancel()
		keeperService.Stop()
		<-keeperDone
	case err := <-keeperDone:
		if err != nil {
			zapLogger.Error("keeper stopped with error", zap.Error(err))
			exitCode = 1
		}
		cancel()
	}

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Stop(shutdownCtx); err != nil {
			zapLogger.Error("failed to stop HTTP server gracefully", zap.Error(err))
		}
	}

	zapLogger.Info("plots-begone stopped")
	return exitCode
}
