package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/pulsemetrics/attribution-engine/internal/adapter"
	"github.com/pulsemetrics/attribution-engine/internal/domain"
	"github.com/pulsemetrics/attribution-engine/internal/logger"
	"github.com/pulsemetrics/attribution-engine/internal/store"
)

// BackfillRequest describes one bulk recomputation run over a conversion
// time range.
type BackfillRequest struct {
	// From and To bound the conversion occurred_at range, [From, To)
	From time.Time
	To   time.Time
	// ModelName restricts the run to a single model; empty recomputes every
	// active model
	ModelName string
	// PageSize is the number of conversion IDs fetched per page
	PageSize int
	// Workers is the number of concurrent recomputations per page
	Workers int
	// Resume continues from the stored checkpoint instead of the range start
	Resume bool
}

func (r *BackfillRequest) applyDefaults() {
	if r.PageSize == 0 {
		r.PageSize = 500
	}
	if r.Workers == 0 {
		r.Workers = 8
	}
}

// scope names the checkpoint key so interrupted runs with the same bounds
// resume each other.
func (r *BackfillRequest) scope() string {
	model := r.ModelName
	if model == "" {
		model = "all"
	}
	return fmt.Sprintf("%s:%s:%s", model, r.From.UTC().Format(time.RFC3339), r.To.UTC().Format(time.RFC3339))
}

// BackfillSummary reports what a run did
type BackfillSummary struct {
	RunID      string
	Scope      string
	Processed  uint64
	Failed     uint64
	StartedAt  time.Time
	FinishedAt time.Time
}

// Backfiller defines the interface for bulk recomputation runs
//
//go:generate mockgen -source=backfill.go -destination=../mocks/backfiller.go -package=mocks -mock_names=Backfiller=MockBackfiller
type Backfiller interface {
	// Run walks the requested conversion range and recomputes attribution,
	// logging and counting per-conversion failures instead of aborting
	Run(ctx context.Context, req BackfillRequest) (*BackfillSummary, error)
}

type backfiller struct {
	store      store.Store
	cursors    store.CursorStore
	recomputer Recomputer
	clock      adapter.Clock
}

// NewBackfiller creates a new bulk recomputation runner
func NewBackfiller(st store.Store, cursors store.CursorStore, recomputer Recomputer, clock adapter.Clock) Backfiller {
	return &backfiller{
		store:      st,
		cursors:    cursors,
		recomputer: recomputer,
		clock:      clock,
	}
}

// Run walks the requested conversion range page by page. Each page is
// processed by a fresh worker pool, and the checkpoint only advances after a
// page fully drains, so a resumed run may redo at most one page. Redoing is
// safe: recomputation is idempotent.
func (b *backfiller) Run(ctx context.Context, req BackfillRequest) (*BackfillSummary, error) {
	req.applyDefaults()

	var modelID uint64
	if req.ModelName != "" {
		model, err := b.store.GetModelByName(ctx, req.ModelName)
		if err != nil {
			return nil, err
		}
		if model == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, req.ModelName)
		}
		if model.ModelType == domain.ModelTypeDataDriven {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedModelType, model.ModelType)
		}
		modelID = model.ID
	}

	scope := req.scope()
	summary := &BackfillSummary{
		RunID:     ulid.Make().String(),
		Scope:     scope,
		StartedAt: b.clock.Now().UTC(),
	}

	var afterID uint64
	if req.Resume {
		cursor, err := b.cursors.GetBackfillCursor(ctx, scope)
		if err != nil {
			return nil, err
		}
		afterID = cursor
	}

	logger.InfoCtx(ctx, "Starting backfill",
		zap.String("runID", summary.RunID),
		zap.String("scope", scope),
		zap.Uint64("afterID", afterID),
		zap.Int("pageSize", req.PageSize),
		zap.Int("workers", req.Workers),
	)

	var processed, failed atomic.Uint64

	for {
		if err := ctx.Err(); err != nil {
			summary.Processed = processed.Load()
			summary.Failed = failed.Load()
			summary.FinishedAt = b.clock.Now().UTC()
			return summary, err
		}

		ids, err := b.store.ListConversionIDsByTimeRange(ctx, req.From, req.To, afterID, req.PageSize)
		if err != nil {
			summary.Processed = processed.Load()
			summary.Failed = failed.Load()
			summary.FinishedAt = b.clock.Now().UTC()
			return summary, err
		}
		if len(ids) == 0 {
			break
		}

		pool := pond.NewPool(req.Workers, pond.WithContext(ctx))
		for _, conversionID := range ids {
			pool.Submit(func() {
				if err := b.recomputeOne(ctx, conversionID, modelID); err != nil {
					// One bad conversion must not stop the run
					logger.ErrorCtx(ctx, err, zap.Uint64("conversionID", conversionID))
					failed.Add(1)
					return
				}
				processed.Add(1)
			})
		}
		pool.StopAndWait()

		afterID = ids[len(ids)-1]
		if err := b.cursors.SetBackfillCursor(ctx, scope, afterID); err != nil {
			logger.WarnCtx(ctx, "Failed to checkpoint backfill",
				zap.String("scope", scope),
				zap.Uint64("afterID", afterID),
				zap.Error(err),
			)
		}

		logger.InfoCtx(ctx, "Backfill page done",
			zap.String("runID", summary.RunID),
			zap.Uint64("afterID", afterID),
			zap.Uint64("processed", processed.Load()),
			zap.Uint64("failed", failed.Load()),
		)
	}

	summary.Processed = processed.Load()
	summary.Failed = failed.Load()
	summary.FinishedAt = b.clock.Now().UTC()

	logger.InfoCtx(ctx, "Backfill finished",
		zap.String("runID", summary.RunID),
		zap.Uint64("processed", summary.Processed),
		zap.Uint64("failed", summary.Failed),
		zap.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)),
	)

	return summary, nil
}

func (b *backfiller) recomputeOne(ctx context.Context, conversionID, modelID uint64) error {
	if modelID != 0 {
		_, err := b.recomputer.RecomputeConversion(ctx, conversionID, modelID)
		return err
	}
	return b.recomputer.RecomputeConversionAllModels(ctx, conversionID)
}
