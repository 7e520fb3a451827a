package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsemetrics/attribution-engine/internal/adapter"
	"github.com/pulsemetrics/attribution-engine/internal/attribution"
	"github.com/pulsemetrics/attribution-engine/internal/domain"
	"github.com/pulsemetrics/attribution-engine/internal/logger"
	"github.com/pulsemetrics/attribution-engine/internal/messaging"
	"github.com/pulsemetrics/attribution-engine/internal/store"
	"github.com/pulsemetrics/attribution-engine/internal/store/schema"
)

// Config holds the tuning knobs for the recomputation engine
type Config struct {
	// Lookback is the attribution window; zero means domain.DefaultLookback
	Lookback time.Duration
	// MaxConflictRetries bounds retries after a same-pair write conflict
	MaxConflictRetries uint64
	// RetryInitialInterval is the first backoff delay after a conflict
	RetryInitialInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.Lookback == 0 {
		c.Lookback = domain.DefaultLookback
	}
	if c.MaxConflictRetries == 0 {
		c.MaxConflictRetries = 3
	}
	if c.RetryInitialInterval == 0 {
		c.RetryInitialInterval = 50 * time.Millisecond
	}
}

// RecomputeSummary describes the outcome of one (conversion, model) recompute
type RecomputeSummary struct {
	ConversionID    uint64
	ModelID         uint64
	ModelName       string
	TouchpointCount int
	AttributedValue float64
	ComputedAt      time.Time
}

// Recomputer defines the interface for recomputing attribution results
//
//go:generate mockgen -source=recompute.go -destination=../mocks/recomputer.go -package=mocks -mock_names=Recomputer=MockRecomputer
type Recomputer interface {
	// RecomputeConversion recomputes results for one (conversion, model) pair
	RecomputeConversion(ctx context.Context, conversionID, modelID uint64) (*RecomputeSummary, error)
	// RecomputeConversionAllModels recomputes a conversion under every active
	// model, continuing past per-model failures
	RecomputeConversionAllModels(ctx context.Context, conversionID uint64) error
}

type recomputer struct {
	store     store.Store
	clock     adapter.Clock
	publisher messaging.Publisher // nil disables event publishing
	config    Config
}

// NewRecomputer creates a new recomputation engine. publisher may be nil when
// no downstream announcement is wanted (backfills, tests).
func NewRecomputer(cfg Config, st store.Store, clock adapter.Clock, publisher messaging.Publisher) Recomputer {
	cfg.applyDefaults()
	return &recomputer{
		store:     st,
		clock:     clock,
		publisher: publisher,
		config:    cfg,
	}
}

// RecomputeConversion recomputes results for one (conversion, model) pair.
// The full pipeline: load conversion and model, select eligible touchpoints
// inside the lookback window, compute credits, then atomically replace the
// stored result set. Same-pair write conflicts are retried with exponential
// backoff before surfacing domain.ErrRecomputeConflict.
func (r *recomputer) RecomputeConversion(ctx context.Context, conversionID, modelID uint64) (*RecomputeSummary, error) {
	conversion, err := r.store.GetConversionByID(ctx, conversionID)
	if err != nil {
		return nil, err
	}
	if conversion == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrConversionNotFound, conversionID)
	}

	model, err := r.store.GetModelByID(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrModelNotFound, modelID)
	}

	windowStart := conversion.OccurredAt.Add(-r.config.Lookback)
	touchpoints, err := r.store.ListTouchpointsInWindow(ctx, conversion.CustomerKey, windowStart, conversion.OccurredAt)
	if err != nil {
		return nil, err
	}

	computedAt := r.clock.Now().UTC()
	results, err := attribution.Compute(*conversion, touchpoints, *model, computedAt)
	if err != nil {
		return nil, err
	}

	if err := r.replaceWithRetry(ctx, conversionID, modelID, results); err != nil {
		return nil, err
	}

	summary := &RecomputeSummary{
		ConversionID:    conversionID,
		ModelID:         modelID,
		ModelName:       model.Name,
		TouchpointCount: len(results),
		ComputedAt:      computedAt,
	}
	if len(results) > 0 {
		summary.AttributedValue = conversion.Value
	}

	r.publishRecomputed(ctx, summary)

	logger.DebugCtx(ctx, "Recomputed attribution",
		zap.Uint64("conversionID", conversionID),
		zap.String("model", model.Name),
		zap.Int("touchpoints", summary.TouchpointCount),
	)

	return summary, nil
}

// RecomputeConversionAllModels recomputes a conversion under every active
// model. A failing model is logged and skipped so one bad configuration does
// not block the rest; the joined error is returned for the caller to retry
// the whole message.
func (r *recomputer) RecomputeConversionAllModels(ctx context.Context, conversionID uint64) error {
	models, err := r.store.ListActiveModels(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, model := range models {
		if model.ModelType == domain.ModelTypeDataDriven {
			logger.WarnCtx(ctx, "Skipping model without computation logic",
				zap.String("model", model.Name),
				zap.String("modelType", string(model.ModelType)),
			)
			continue
		}

		if _, err := r.RecomputeConversion(ctx, conversionID, model.ID); err != nil {
			logger.ErrorCtx(ctx, err,
				zap.Uint64("conversionID", conversionID),
				zap.String("model", model.Name),
			)
			errs = append(errs, fmt.Errorf("model %s: %w", model.Name, err))
		}
	}

	return errors.Join(errs...)
}

// replaceWithRetry writes the result set, retrying conflict errors with
// exponential backoff. Any other error aborts immediately.
func (r *recomputer) replaceWithRetry(ctx context.Context, conversionID, modelID uint64, results []schema.AttributionResult) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.config.RetryInitialInterval

	operation := func() error {
		err := r.store.ReplaceAttributionResults(ctx, conversionID, modelID, results)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrRecomputeConflict) {
			logger.WarnCtx(ctx, "Recompute conflict, retrying",
				zap.Uint64("conversionID", conversionID),
				zap.Uint64("modelID", modelID),
			)
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), r.config.MaxConflictRetries))
}

// publishRecomputed announces fresh results downstream. Publishing is best
// effort: the results are already committed, a broker hiccup must not fail
// the recompute.
func (r *recomputer) publishRecomputed(ctx context.Context, summary *RecomputeSummary) {
	if r.publisher == nil {
		return
	}

	event := &domain.AttributionRecomputed{
		EventID:         uuid.NewString(),
		ConversionID:    summary.ConversionID,
		ModelID:         summary.ModelID,
		ModelName:       summary.ModelName,
		TouchpointCount: summary.TouchpointCount,
		AttributedValue: summary.AttributedValue,
		ComputedAt:      summary.ComputedAt,
	}
	if err := r.publisher.PublishAttributionRecomputed(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish recompute event",
			zap.Uint64("conversionID", summary.ConversionID),
			zap.String("model", summary.ModelName),
			zap.Error(err),
		)
	}
}
