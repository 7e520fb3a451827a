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
	"github.com/pulsemetrics/attribution-engine/internal/config"
	"github.com/pulsemetrics/attribution-engine/internal/engine"
	"github.com/pulsemetrics/attribution-engine/internal/logger"
	"github.com/pulsemetrics/attribution-engine/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	fromFlag   = flag.String("from", "", "Start of the conversion range, RFC3339 (inclusive)")
	toFlag     = flag.String("to", "", "End of the conversion range, RFC3339 (exclusive)")
	modelFlag  = flag.String("model", "", "Model name to recompute; empty recomputes every active model")
	resumeFlag = flag.Bool("resume", false, "Resume from the stored checkpoint for this range")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadBackfillConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Parse the range flags before touching anything else
	from, err := time.Parse(time.RFC3339, *fromFlag)
	if err != nil {
		panic(fmt.Sprintf("Invalid -from value %q: %v", *fromFlag, err))
	}
	to, err := time.Parse(time.RFC3339, *toFlag)
	if err != nil {
		panic(fmt.Sprintf("Invalid -to value %q: %v", *toFlag, err))
	}
	if !from.Before(to) {
		panic(fmt.Sprintf("-from (%s) must be before -to (%s)", *fromFlag, *toFlag))
	}

	// Cancel the run on SIGINT/SIGTERM; the checkpoint lets -resume pick it up
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "backfill",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Attribution Backfill")

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

	// Initialize stores
	dataStore := store.NewPGStore(db)
	cursorStore := store.NewCursorStore(db)

	// Initialize clock adapter
	clock := adapter.NewClock()

	// Backfills write straight to the database; downstream announcements
	// would only duplicate what consumers rebuild from the results tables
	recomputer := engine.NewRecomputer(
		engine.Config{
			Lookback:             time.Duration(cfg.Engine.LookbackDays) * 24 * time.Hour,
			MaxConflictRetries:   cfg.Engine.MaxConflictRetries,
			RetryInitialInterval: cfg.Engine.RetryInitialInterval,
		},
		dataStore,
		clock,
		nil,
	)

	backfiller := engine.NewBackfiller(dataStore, cursorStore, recomputer, clock)

	summary, err := backfiller.Run(ctx, engine.BackfillRequest{
		From:      from,
		To:        to,
		ModelName: *modelFlag,
		PageSize:  cfg.Backfill.PageSize,
		Workers:   cfg.Backfill.Workers,
		Resume:    *resumeFlag,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorCtx(ctx, err)
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}

	if summary != nil {
		logger.InfoCtx(ctx, "Backfill run complete",
			zap.String("runID", summary.RunID),
			zap.String("scope", summary.Scope),
			zap.Uint64("processed", summary.Processed),
			zap.Uint64("failed", summary.Failed),
			zap.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)),
		)
		if summary.Failed > 0 {
			logger.Flush(2 * time.Second)
			os.Exit(1)
		}
	}
}
