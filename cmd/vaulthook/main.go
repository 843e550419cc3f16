package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"vaulthook/internal/config"
	"vaulthook/internal/constants"
	"vaulthook/internal/database"
	"vaulthook/internal/retry"
	"vaulthook/internal/service"
	"vaulthook/internal/tracing"
)

// Set via ldflags at build time.
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "config.json", "path to configuration file")
		verbose     = flag.Bool("verbose", false, "enable debug logging")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("vaulthook %s (built %s, commit %s)\n", version, buildTime, gitCommit)
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, logger); err != nil {
		logger.WithError(err).Fatal("Server exited with error")
	}
}

func run(ctx context.Context, configPath string, logger *logrus.Logger) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.LogLevel != "" && logger.GetLevel() != logrus.DebugLevel {
		if level, parseErr := logrus.ParseLevel(cfg.LogLevel); parseErr == nil {
			logger.SetLevel(level)
		}
	}

	tracingCfg := tracing.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
		UseStdout:      cfg.Tracing.UseStdout,
	}
	if tracingCfg.ServiceName == "" {
		tracingCfg = tracing.DefaultTracingConfig()
		tracingCfg.Enabled = cfg.Tracing.Enabled
	}
	tracingManager := tracing.NewTracingManager(tracingCfg, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingManager.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to shut down tracing")
		}
	}()

	db, err := initDatabaseWithRetry(ctx, cfg.Database.Path, cfg.Retry.MaxAttempts,
		time.Duration(cfg.Retry.InitialBackoffMs)*time.Millisecond,
		time.Duration(cfg.Retry.MaxBackoffMs)*time.Millisecond, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
	}()

	resolver := service.NewUserResolver(db, logger)
	admitter := service.NewJobAdmitter(db, logger)
	deadLetter := service.NewDeadLetterRecorder(db, logger)
	notifier := service.NewAckNotifier(cfg.Twilio, logger)
	admission := service.NewAdmissionService(cfg, resolver, admitter, deadLetter, notifier, logger)

	server := newServer(cfg, admission, db, logger)

	serverErr := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":    cfg.Server.Port,
			"version": version,
		}).Info("Starting webhook server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// initDatabaseWithRetry opens the database with exponential backoff. A
// transient open failure at boot (volume not mounted yet, file lock held by
// a terminating replica) should not kill the process on the first try.
func initDatabaseWithRetry(ctx context.Context, dbPath string, maxAttempts int, initialBackoff, maxBackoff time.Duration, logger *logrus.Logger) (*database.Database, error) {
	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: initialBackoff,
		MaxDelay:     maxBackoff,
		Multiplier:   2.0,
		MaxAttempts:  maxAttempts,
		Jitter:       true,
	})

	var db *database.Database
	err := backoff.Retry(ctx, func() error {
		var openErr error
		db, openErr = database.New(dbPath)
		if openErr != nil {
			logger.WithError(openErr).Warn("Database open failed, will retry")
		}
		return openErr
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
