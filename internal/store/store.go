package store

import (
	"context"
	"time"

	"github.com/pulsemetrics/attribution-engine/internal/domain"
	"github.com/pulsemetrics/attribution-engine/internal/store/schema"
)

//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks

// StaleConversionModelPair identifies a (conversion, model) combination whose
// stored results are missing or older than the model's last parameter edit.
type StaleConversionModelPair struct {
	ConversionID uint64 `gorm:"column:conversion_id"`
	ModelID      uint64 `gorm:"column:model_id"`
}

// ChannelAttributedValue is one row of the per-channel attributed value
// rollup for a model.
type ChannelAttributedValue struct {
	Channel         domain.Channel `gorm:"column:channel"`
	AttributedValue float64        `gorm:"column:attributed_value"`
	ResultCount     uint64         `gorm:"column:result_count"`
}

// Store defines the interface for database operations
type Store interface {
	// CreateConversionEvent inserts a conversion event
	CreateConversionEvent(ctx context.Context, conversion *schema.ConversionEvent) error
	// GetConversionByID retrieves a conversion event by its internal ID
	GetConversionByID(ctx context.Context, conversionID uint64) (*schema.ConversionEvent, error)
	// ListConversionIDsByTimeRange pages conversion IDs whose occurred_at falls
	// in [from, to), ordered ascending by ID, starting strictly after afterID
	ListConversionIDsByTimeRange(ctx context.Context, from, to time.Time, afterID uint64, limit int) ([]uint64, error)

	// CreateTouchpoints inserts touchpoints in batches
	CreateTouchpoints(ctx context.Context, touchpoints []schema.Touchpoint) error
	// ListTouchpointsInWindow retrieves a customer's touchpoints with
	// occurred_at in [from, to], ordered by occurred_at ascending with ID as
	// tiebreaker
	ListTouchpointsInWindow(ctx context.Context, customerKey string, from, to time.Time) ([]schema.Touchpoint, error)

	// GetModelByID retrieves an attribution model by its internal ID
	GetModelByID(ctx context.Context, modelID uint64) (*schema.AttributionModel, error)
	// GetModelByName retrieves an attribution model by its unique name
	GetModelByName(ctx context.Context, name string) (*schema.AttributionModel, error)
	// ListActiveModels retrieves all active attribution models ordered by ID
	ListActiveModels(ctx context.Context) ([]schema.AttributionModel, error)
	// UpsertAttributionModel creates a model or updates the existing row with
	// the same name, advancing its updated_at watermark
	UpsertAttributionModel(ctx context.Context, model *schema.AttributionModel) error

	// ReplaceAttributionResults atomically swaps the full result set for one
	// (conversion, model) pair: delete then insert in a single transaction,
	// serialized against concurrent writers of the same pair
	ReplaceAttributionResults(ctx context.Context, conversionID, modelID uint64, results []schema.AttributionResult) error
	// GetAttributionResults retrieves the stored results for a
	// (conversion, model) pair ordered by sequence position
	GetAttributionResults(ctx context.Context, conversionID, modelID uint64) ([]schema.AttributionResult, error)
	// ListStaleConversionModelPairs finds (conversion, model) pairs that need
	// recomputation, skipping conversions with no touchpoints inside the
	// lookback window
	ListStaleConversionModelPairs(ctx context.Context, lookbackDays int, limit int) ([]StaleConversionModelPair, error)
	// AttributedValueByChannel aggregates attributed value per channel for a
	// model over conversions occurring in [from, to)
	AttributedValueByChannel(ctx context.Context, modelID uint64, from, to time.Time) ([]ChannelAttributedValue, error)
}
