package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pulsemetrics/attribution-engine/internal/domain"
	"github.com/pulsemetrics/attribution-engine/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	// Set defaults if not provided
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays
// under PostgreSQL's extended-protocol limit of 65535 parameters per query.
// Each record consumes one parameter per inserted field, and a total headroom
// is reserved for batch-level overhead (GORM bookkeeping, conflict clauses).
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

// isSerializationConflict reports whether err is a PostgreSQL error that
// signals two writers collided (serialization failure, deadlock, or a unique
// violation on the results index). These are safe to retry.
func isSerializationConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"23505": // unique_violation
		return true
	}
	return false
}

// CreateConversionEvent inserts a conversion event
func (s *pgStore) CreateConversionEvent(ctx context.Context, conversion *schema.ConversionEvent) error {
	if conversion.Value < 0 {
		return fmt.Errorf("%w: conversion value must be >= 0, got %v", domain.ErrDataIntegrity, conversion.Value)
	}
	if conversion.OccurredAt.IsZero() {
		return fmt.Errorf("%w: conversion occurred_at is required", domain.ErrDataIntegrity)
	}

	if err := s.db.WithContext(ctx).Create(conversion).Error; err != nil {
		return fmt.Errorf("failed to create conversion event: %w", err)
	}
	return nil
}

// GetConversionByID retrieves a conversion event by its internal ID
func (s *pgStore) GetConversionByID(ctx context.Context, conversionID uint64) (*schema.ConversionEvent, error) {
	var conversion schema.ConversionEvent
	err := s.db.WithContext(ctx).Where("id = ?", conversionID).First(&conversion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversion event: %w", err)
	}
	return &conversion, nil
}

// ListConversionIDsByTimeRange pages conversion IDs whose occurred_at falls
// in [from, to), ordered ascending by ID, starting strictly after afterID
func (s *pgStore) ListConversionIDsByTimeRange(ctx context.Context, from, to time.Time, afterID uint64, limit int) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).
		Model(&schema.ConversionEvent{}).
		Where("occurred_at >= ? AND occurred_at < ? AND id > ?", from, to, afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversion IDs: %w", err)
	}
	return ids, nil
}

// CreateTouchpoints inserts touchpoints in batches
func (s *pgStore) CreateTouchpoints(ctx context.Context, touchpoints []schema.Touchpoint) error {
	if len(touchpoints) == 0 {
		return nil
	}

	// 8 insert parameters per touchpoint row
	batchSize := calculateSafeBatchSize(len(touchpoints), 8)
	if err := s.db.WithContext(ctx).CreateInBatches(touchpoints, batchSize).Error; err != nil {
		return fmt.Errorf("failed to create touchpoints: %w", err)
	}
	return nil
}

// ListTouchpointsInWindow retrieves a customer's touchpoints with occurred_at
// in [from, to]. Both bounds are inclusive: a touchpoint exactly at the window
// edge still earns credit. Ordering is occurred_at ascending with ID breaking
// ties so journeys are deterministic.
func (s *pgStore) ListTouchpointsInWindow(ctx context.Context, customerKey string, from, to time.Time) ([]schema.Touchpoint, error) {
	var touchpoints []schema.Touchpoint
	err := s.db.WithContext(ctx).
		Where("customer_key = ? AND occurred_at >= ? AND occurred_at <= ?", customerKey, from, to).
		Order("occurred_at ASC, id ASC").
		Find(&touchpoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list touchpoints in window: %w", err)
	}
	return touchpoints, nil
}

// GetModelByID retrieves an attribution model by its internal ID
func (s *pgStore) GetModelByID(ctx context.Context, modelID uint64) (*schema.AttributionModel, error) {
	var model schema.AttributionModel
	err := s.db.WithContext(ctx).Where("id = ?", modelID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attribution model: %w", err)
	}
	return &model, nil
}

// GetModelByName retrieves an attribution model by its unique name
func (s *pgStore) GetModelByName(ctx context.Context, name string) (*schema.AttributionModel, error) {
	var model schema.AttributionModel
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attribution model: %w", err)
	}
	return &model, nil
}

// ListActiveModels retrieves all active attribution models ordered by ID
func (s *pgStore) ListActiveModels(ctx context.Context) ([]schema.AttributionModel, error) {
	var models []schema.AttributionModel
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active models: %w", err)
	}
	return models, nil
}

// UpsertAttributionModel creates a model or updates the existing row with the
// same name. The update advances updated_at so existing results for the model
// become stale and get picked up by the sweeper.
func (s *pgStore) UpsertAttributionModel(ctx context.Context, model *schema.AttributionModel) error {
	if !domain.IsValidModelType(model.ModelType) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedModelType, model.ModelType)
	}
	// Validate parameters up front so a bad edit never reaches the table.
	// data_driven rows are storable but not computable, skip the parse.
	if model.ModelType != domain.ModelTypeDataDriven {
		if _, err := domain.ParseModelParams(model.ModelType, model.Parameters); err != nil {
			return err
		}
	}

	model.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"model_type", "parameters", "is_active", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert attribution model: %w", err)
	}
	return nil
}

// ReplaceAttributionResults atomically swaps the full result set for one
// (conversion, model) pair. The conversion row is locked FOR UPDATE first, so
// two recomputations of the same pair serialize instead of interleaving their
// delete and insert phases. Conflicts that slip through anyway surface as
// domain.ErrRecomputeConflict for the caller to retry.
func (s *pgStore) ReplaceAttributionResults(ctx context.Context, conversionID, modelID uint64, results []schema.AttributionResult) error {
	for i := range results {
		if results[i].ConversionID != conversionID || results[i].ModelID != modelID {
			return fmt.Errorf("%w: result row %d does not belong to conversion %d model %d",
				domain.ErrDataIntegrity, i, conversionID, modelID)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conversion schema.ConversionEvent
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", conversionID).
			First(&conversion).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrConversionNotFound
			}
			return fmt.Errorf("failed to lock conversion: %w", err)
		}

		if err := tx.Where("conversion_id = ? AND model_id = ?", conversionID, modelID).
			Delete(&schema.AttributionResult{}).Error; err != nil {
			return fmt.Errorf("failed to delete stale results: %w", err)
		}

		if len(results) == 0 {
			return nil
		}

		// 10 insert parameters per result row
		batchSize := calculateSafeBatchSize(len(results), 10)
		if err := tx.CreateInBatches(results, batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert results: %w", err)
		}

		return nil
	})
	if err != nil {
		if isSerializationConflict(err) {
			return fmt.Errorf("%w: conversion %d model %d: %v", domain.ErrRecomputeConflict, conversionID, modelID, err)
		}
		return err
	}
	return nil
}

// GetAttributionResults retrieves the stored results for a (conversion, model)
// pair ordered by sequence position
func (s *pgStore) GetAttributionResults(ctx context.Context, conversionID, modelID uint64) ([]schema.AttributionResult, error) {
	var results []schema.AttributionResult
	err := s.db.WithContext(ctx).
		Where("conversion_id = ? AND model_id = ?", conversionID, modelID).
		Order("sequence_position ASC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get attribution results: %w", err)
	}
	return results, nil
}

// ListStaleConversionModelPairs finds (conversion, model) pairs whose results
// are missing or were computed before the model's last parameter edit.
// Conversions with no touchpoint inside the lookback window are skipped: they
// legitimately have zero result rows and would otherwise churn forever.
func (s *pgStore) ListStaleConversionModelPairs(ctx context.Context, lookbackDays int, limit int) ([]StaleConversionModelPair, error) {
	var pairs []StaleConversionModelPair
	err := s.db.WithContext(ctx).Raw(`
		SELECT c.id AS conversion_id, m.id AS model_id
		FROM conversion_events c
		CROSS JOIN attribution_models m
		WHERE m.is_active
			AND m.model_type <> 'data_driven'
			AND EXISTS (
				SELECT 1 FROM touchpoints t
				WHERE t.customer_key = c.customer_key
					AND t.occurred_at <= c.occurred_at
					AND t.occurred_at >= c.occurred_at - make_interval(days => ?)
			)
			AND NOT EXISTS (
				SELECT 1 FROM attribution_results r
				WHERE r.conversion_id = c.id
					AND r.model_id = m.id
					AND r.computed_at >= m.updated_at
			)
		ORDER BY c.id ASC, m.id ASC
		LIMIT ?
	`, lookbackDays, limit).Scan(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pairs: %w", err)
	}
	return pairs, nil
}

// AttributedValueByChannel aggregates attributed value per channel for a
// model over conversions occurring in [from, to)
func (s *pgStore) AttributedValueByChannel(ctx context.Context, modelID uint64, from, to time.Time) ([]ChannelAttributedValue, error) {
	var rows []ChannelAttributedValue
	err := s.db.WithContext(ctx).Raw(`
		SELECT t.channel, SUM(r.attributed_value) AS attributed_value, COUNT(*) AS result_count
		FROM attribution_results r
		JOIN touchpoints t ON t.id = r.touchpoint_id
		JOIN conversion_events c ON c.id = r.conversion_id
		WHERE r.model_id = ?
			AND c.occurred_at >= ?
			AND c.occurred_at < ?
		GROUP BY t.channel
		ORDER BY attributed_value DESC, t.channel ASC
	`, modelID, from, to).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate attributed value by channel: %w", err)
	}
	return rows, nil
}
