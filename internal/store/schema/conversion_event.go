package schema

import (
	"time"

	"github.com/pulsemetrics/attribution-engine/internal/domain"
)

// ConversionEvent represents the conversion_events table - goal-completing
// customer actions that attribution credit is distributed toward.
// Rows are written by the ingestion pipeline and are read-only here;
// recomputation never mutates them.
type ConversionEvent struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CustomerKey is the stable identity of the converting person (e.g. email)
	CustomerKey string `gorm:"column:customer_key;not null;type:text;index:idx_conversion_events_customer_time,priority:1"`
	// ConversionType identifies the kind of conversion (purchase, signup, lead, trial, subscription)
	ConversionType domain.ConversionType `gorm:"column:conversion_type;not null;type:text"`
	// Value is the monetary amount of the conversion, always >= 0
	Value float64 `gorm:"column:value;not null;type:numeric(14,2)"`
	// OrderID is the external order reference, if any
	OrderID *string `gorm:"column:order_id;type:text"`
	// ProductName is the converted product, if any
	ProductName *string `gorm:"column:product_name;type:text"`
	// OccurredAt is when the conversion happened; immutable once attribution
	// has been computed against it
	OccurredAt time.Time `gorm:"column:occurred_at;not null;type:timestamptz;index:idx_conversion_events_customer_time,priority:2;index:idx_conversion_events_occurred_at"`
	// CreatedAt is when this record was ingested
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	AttributionResults []AttributionResult `gorm:"foreignKey:ConversionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the ConversionEvent model
func (ConversionEvent) TableName() string {
	return "conversion_events"
}
