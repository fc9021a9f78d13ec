package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/adapter/filesystem"
	"github.com/vertextoedge/remote-pull-agent/internal/adapter/rsync"
	"github.com/vertextoedge/remote-pull-agent/internal/adapter/sourcefile"
	"github.com/vertextoedge/remote-pull-agent/internal/adapter/sqlite"
	"github.com/vertextoedge/remote-pull-agent/internal/adapter/telegram"
	"github.com/vertextoedge/remote-pull-agent/internal/config"
	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/logger"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
	"github.com/vertextoedge/remote-pull-agent/internal/service/scheduler"
	"github.com/vertextoedge/remote-pull-agent/internal/service/server"
	"github.com/vertextoedge/remote-pull-agent/internal/service/status"
	"github.com/vertextoedge/remote-pull-agent/internal/service/transfer"
)

const version = "0.1.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	once := flag.Bool("once", false, "Run a single pull and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()
	zapLogger.Info("starting remote-pull-agent",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Initialize filesystem manager
	fsManager, err := filesystem.NewManager(cfg.Transfer.DestDir)
	if err != nil {
		zapLogger.Fatal("failed to create filesystem manager", zap.Error(err))
	}

	// Open database
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = filepath.Join(cfg.Transfer.DestDir, "agent.db")
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		zapLogger.Fatal("failed to open database", zap.Error(err), zap.String("path", dbPath))
	}
	defer store.Close()

	// Seed the schedule row once; later edits through the API win
	if err := store.EnsureSchedule(domain.Schedule{
		Enabled:  cfg.Schedule.Enabled,
		Interval: cfg.Schedule.GetInterval(),
	}); err != nil {
		zapLogger.Fatal("failed to seed schedule", zap.Error(err))
	}

	// Durable source spec, editable at runtime
	sourceStore, err := sourcefile.NewStore(filepath.Join(filepath.Dir(dbPath), "source.conf"))
	if err != nil {
		zapLogger.Fatal("failed to open source store", zap.Error(err))
	}

	// Notification channel
	var notifier port.Notifier = telegram.NopNotifier{}
	if cfg.Telegram.Enabled {
		notifier = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.GetTimeout(), zapLogger)
		zapLogger.Info("telegram notifications enabled", zap.String("chat_id", cfg.Telegram.ChatID))
	} else {
		zapLogger.Info("telegram notifications disabled")
	}

	// Append-only run logs
	runLog := transfer.NewRunLog(cfg.Logging.Dir)
	defer runLog.Close()

	// Create orchestrator
	orchestrator := transfer.New(
		&transfer.Config{
			FallbackSourceSpec:  cfg.Transfer.SourceSpec,
			DestDir:             cfg.Transfer.DestDir,
			ReportDir:           cfg.Transfer.ReportDir,
			DiskFloorGB:         cfg.Disk.FloorGB,
			Timeout:             cfg.Transfer.GetTimeout(),
			Retry:               domain.RetryPolicy{MaxAttempts: cfg.Transfer.MaxAttempts, BaseDelay: cfg.Transfer.GetBaseDelay()},
			FolderListThreshold: cfg.Report.FolderListThreshold,
		},
		transfer.Deps{
			Invoker:  rsync.NewInvoker(cfg.Transfer.SSHKeyPath, zapLogger),
			Notifier: notifier,
			Source:   sourceStore,
			Runs:     store,
			FS:       fsManager,
		},
		runLog,
		zapLogger,
	)

	if *once {
		if err := orchestrator.RunTransfer(context.Background(), domain.DirectionPull); err != nil {
			zapLogger.Error("pull failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	// Create status service
	statusService := status.New(&status.Config{
		RemoteStatusURL: cfg.Remote.StatusURL,
		RemoteTimeout:   cfg.Remote.GetTimeout(),
	}, fsManager, zapLogger)

	// Create scheduler
	schedulerService := scheduler.New(scheduler.DefaultConfig(), store, store, orchestrator, zapLogger)

	// Create HTTP server
	httpServer := server.New(&server.Config{
		BindAddr:      cfg.HTTP.BindAddr,
		AdminUsername: cfg.HTTP.AdminUsername,
		AdminPassword: cfg.HTTP.AdminPassword,
		ReadTimeout:   cfg.HTTP.GetReadTimeout(),
		WriteTimeout:  cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:   cfg.HTTP.GetIdleTimeout(),
	}, orchestrator, store, store, statusService, store, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Start scheduler
	go func() {
		if err := schedulerService.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("scheduler stopped with error", zap.Error(err))
		}
	}()

	zapLogger.Info("remote-pull-agent started",
		zap.String("dest_dir", cfg.Transfer.DestDir),
		zap.String("http_addr", cfg.HTTP.BindAddr))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zapLogger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	schedulerService.Stop()
	cancel()

	zapLogger.Info("remote-pull-agent stopped")
}
