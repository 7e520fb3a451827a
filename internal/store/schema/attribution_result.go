package schema

import (
	"time"

	"github.com/pulsemetrics/attribution-engine/internal/domain"
)

// AttributionResult represents the attribution_results table - the derived
// credit assignment of one conversion to one touchpoint under one model.
// Rows are exclusively owned by the recomputation engine: a recompute
// replaces the full (conversion_id, model_id) row set in one transaction,
// and the composite unique index makes racing writers collide instead of
// duplicating rows.
type AttributionResult struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ConversionID references the credited conversion
	ConversionID uint64 `gorm:"column:conversion_id;not null;uniqueIndex:idx_attribution_results_conv_tp_model,priority:1;index:idx_attribution_results_conv_model,priority:1"`
	// TouchpointID references the credited touchpoint
	TouchpointID uint64 `gorm:"column:touchpoint_id;not null;uniqueIndex:idx_attribution_results_conv_tp_model,priority:2"`
	// ModelID references the attribution model that produced this row
	ModelID uint64 `gorm:"column:model_id;not null;uniqueIndex:idx_attribution_results_conv_tp_model,priority:3;index:idx_attribution_results_conv_model,priority:2"`
	// Credit is this touchpoint's fractional share of the conversion, in
	// [0,1]; credits for one (conversion, model) pair sum to 1
	Credit float64 `gorm:"column:credit;not null;type:numeric(12,10)"`
	// AttributedValue is Credit times the conversion value
	AttributedValue float64 `gorm:"column:attributed_value;not null;type:numeric(14,4)"`
	// SequencePosition is the 1-based chronological position among the
	// conversion's eligible touchpoints
	SequencePosition int `gorm:"column:sequence_position;not null"`
	// TouchpointRole classifies the position (first, middle, last, only)
	TouchpointRole domain.TouchpointRole `gorm:"column:touchpoint_role;not null;type:text"`
	// HoursToConversion is the age of the touchpoint relative to the
	// conversion, in hours, always >= 0
	HoursToConversion float64 `gorm:"column:hours_to_conversion;not null"`
	// ComputedAt is when this row set was computed
	ComputedAt time.Time `gorm:"column:computed_at;not null;type:timestamptz"`
	// CreatedAt is when this row was written
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Conversion ConversionEvent  `gorm:"foreignKey:ConversionID;constraint:OnDelete:CASCADE"`
	Touchpoint Touchpoint       `gorm:"foreignKey:TouchpointID;constraint:OnDelete:CASCADE"`
	Model      AttributionModel `gorm:"foreignKey:ModelID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the AttributionResult model
func (AttributionResult) TableName() string {
	return "attribution_results"
}
