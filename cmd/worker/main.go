package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pulsemetrics/attribution-engine/internal/adapter"
	"github.com/pulsemetrics/attribution-engine/internal/bridge"
	"github.com/pulsemetrics/attribution-engine/internal/config"
	"github.com/pulsemetrics/attribution-engine/internal/engine"
	"github.com/pulsemetrics/attribution-engine/internal/logger"
	"github.com/pulsemetrics/attribution-engine/internal/messaging"
	"github.com/pulsemetrics/attribution-engine/internal/providers/jetstream"
	"github.com/pulsemetrics/attribution-engine/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadWorkerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "worker",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Attribution Worker")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()
	clock := adapter.NewClock()

	// Initialize result publisher
	var publisher messaging.Publisher
	if cfg.Publisher.Enabled {
		publisher, err = jetstream.NewPublisher(
			jetstream.Config{
				URL:            cfg.NATS.URL,
				StreamName:     cfg.Publisher.StreamName,
				MaxReconnects:  cfg.NATS.MaxReconnects,
				ReconnectWait:  cfg.NATS.ReconnectWait,
				ConnectionName: "attribution-worker-publisher",
			},
			natsJS,
			jsonAdapter,
		)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create publisher", zap.Error(err))
		}
		defer publisher.Close()
		logger.InfoCtx(ctx, "Publisher created", zap.String("stream", cfg.Publisher.StreamName))
	}

	// Initialize recomputation engine
	recomputer := engine.NewRecomputer(
		engine.Config{
			Lookback:             time.Duration(cfg.Engine.LookbackDays) * 24 * time.Hour,
			MaxConflictRetries:   cfg.Engine.MaxConflictRetries,
			RetryInitialInterval: cfg.Engine.RetryInitialInterval,
		},
		dataStore,
		clock,
		publisher,
	)

	// Create bridge
	conversionBridge, err := bridge.NewBridge(
		bridge.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			ConsumerName:   cfg.NATS.ConsumerName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			AckWaitTimeout: cfg.NATS.AckWait,
			MaxDeliver:     cfg.NATS.MaxDeliver,
		},
		natsJS,
		recomputer,
		jsonAdapter,
	)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create conversion bridge", zap.Error(err))
	}
	defer conversionBridge.Close()
	logger.InfoCtx(ctx, "Conversion bridge created",
		zap.String("stream", cfg.NATS.StreamName),
		zap.String("consumer", cfg.NATS.ConsumerName),
	)

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for bridge errors
	errCh := make(chan error, 1)

	// Start the bridge
	go func() {
		if err := conversionBridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "bridge"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	logger.Info("Attribution Worker stopped")
}
