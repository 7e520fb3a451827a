package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/pulsemetrics/attribution-engine/internal/adapter"
	"github.com/pulsemetrics/attribution-engine/internal/domain"
	"github.com/pulsemetrics/attribution-engine/internal/engine"
	"github.com/pulsemetrics/attribution-engine/internal/logger"
	"github.com/pulsemetrics/attribution-engine/internal/store"
)

const (
	SWEEP_CYCLE_INTERVAL = 15 * time.Minute // Time to sleep between sweep cycles
)

// StaleResultsSweeperConfig holds configuration for the stale results sweeper
type StaleResultsSweeperConfig struct {
	BatchSize      int // Stale pairs to recompute per cycle
	WorkerPoolSize int // Concurrent recomputations
	LookbackDays   int // Attribution window used to find eligible touchpoints
}

// staleResultsSweeper implements the Sweeper interface. It catches the
// (conversion, model) pairs the event path missed: results invalidated by a
// model parameter edit, or never computed because a message was dropped.
type staleResultsSweeper struct {
	config     *StaleResultsSweeperConfig
	store      store.Store
	recomputer engine.Recomputer
	pool       pond.Pool
	clock      adapter.Clock
	running    atomic.Bool
	stopChan   chan struct{}
	stoppedCh  chan struct{}
}

// NewStaleResultsSweeper creates a new stale results sweeper
func NewStaleResultsSweeper(
	config *StaleResultsSweeperConfig,
	st store.Store,
	recomputer engine.Recomputer,
	clock adapter.Clock,
) Sweeper {
	if config.LookbackDays == 0 {
		config.LookbackDays = domain.DefaultLookbackDays
	}
	return &staleResultsSweeper{
		config:     config,
		store:      st,
		recomputer: recomputer,
		clock:      clock,
		stopChan:   make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *staleResultsSweeper) Name() string {
	return "stale-results-sweeper"
}

// Start begins the sweeper's main loop - continuously drains stale pairs
func (s *staleResultsSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh) // Signal that we've stopped
	}()

	logger.InfoCtx(ctx, "Starting stale results sweeper",
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
		zap.Int("lookback_days", s.config.LookbackDays),
	)

	// Create worker pool
	s.pool = pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)

	// Continuous loop - stops when context is canceled or stop is requested
	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Stale results sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			s.cleanup()
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Stale results sweeper stop requested")
			s.cleanup()
			return nil
		default:
			if err := s.runSweepCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, err)
				}
			}
		}
	}
}

// cleanup stops the worker pool and waits for tasks to complete
func (s *staleResultsSweeper) cleanup() {
	if s.pool != nil {
		s.pool.StopAndWait()
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *staleResultsSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping stale results sweeper")

	// Signal stop to the main loop
	close(s.stopChan)

	// Wait for main loop to exit, but respect context cancellation
	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Stale results sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Stale results sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle runs a single sweep cycle
func (s *staleResultsSweeper) runSweepCycle(ctx context.Context) error {
	startTime := s.clock.Now()
	logger.InfoCtx(ctx, "Starting sweep cycle")

	// Find pairs whose results are missing or older than the model's last edit
	pairs, err := s.store.ListStaleConversionModelPairs(ctx, s.config.LookbackDays, s.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list stale pairs: %w", err)
	}

	if len(pairs) == 0 {
		logger.InfoCtx(ctx, "No stale pairs, waiting for new work...")
		// Sleep briefly to avoid tight loop when nothing is stale
		// Use context-aware sleep so we can be interrupted
		if !s.sleep(ctx, SWEEP_CYCLE_INTERVAL) {
			return ctx.Err() // Context canceled during sleep
		}
		return nil
	}

	logger.InfoCtx(ctx, "Found stale pairs to recompute", zap.Int("count", len(pairs)))

	var recomputed, failed atomic.Int32

	// Submit all recomputations to worker pool. Recomputation is idempotent,
	// so overlapping with the event path at worst wastes one write.
	for _, pair := range pairs {
		s.pool.Submit(func() {
			if _, err := s.recomputer.RecomputeConversion(ctx, pair.ConversionID, pair.ModelID); err != nil {
				logger.ErrorCtx(ctx, err,
					zap.Uint64("conversionID", pair.ConversionID),
					zap.Uint64("modelID", pair.ModelID),
				)
				failed.Add(1)
				return
			}
			recomputed.Add(1)
		})
	}

	// Wait for all recomputations to complete
	s.pool.StopAndWait()

	// Recreate pool for next cycle
	s.pool = pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)

	duration := s.clock.Since(startTime)
	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Duration("duration", duration),
		zap.Int("total_stale", len(pairs)),
		zap.Int32("recomputed", recomputed.Load()),
		zap.Int32("failed", failed.Load()),
	)

	// A full batch suggests more stale pairs are waiting; skip the sleep and
	// drain them in the next cycle.
	if len(pairs) < s.config.BatchSize {
		if !s.sleep(ctx, SWEEP_CYCLE_INTERVAL) {
			return ctx.Err() // Context canceled during sleep
		}
	}

	return nil
}

// sleep sleeps for the given duration but can be interrupted by context cancellation
// Returns true if sleep completed normally, false if interrupted by context
func (s *staleResultsSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true // Sleep completed
	case <-ctx.Done():
		return false // Interrupted by context cancellation
	case <-s.stopChan:
		return false // Interrupted by stop signal
	}
}
