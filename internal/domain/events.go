package domain

import "time"

// ConversionEventType represents the type of conversion lifecycle event
// delivered over the message stream
type ConversionEventType string

const (
	// ConversionEventCreated is published by ingestion after a conversion row
	// is written
	ConversionEventCreated ConversionEventType = "created"
	// ConversionEventInvalidated is published when a conversion's inputs
	// changed and its attribution must be recomputed
	ConversionEventInvalidated ConversionEventType = "invalidated"
)

// ConversionMessage is the envelope ingestion publishes for each conversion
// lifecycle event. The conversion row itself is already persisted; the
// message only carries the identity needed to recompute.
type ConversionMessage struct {
	EventID      string              `json:"event_id"`
	EventType    ConversionEventType `json:"event_type"`
	ConversionID uint64              `json:"conversion_id"`
	CustomerKey  string              `json:"customer_key,omitempty"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// AttributionRecomputed is published after a successful recompute so
// downstream reporting can refresh without polling the results table.
type AttributionRecomputed struct {
	EventID         string    `json:"event_id"`
	ConversionID    uint64    `json:"conversion_id"`
	ModelID         uint64    `json:"model_id"`
	ModelName       string    `json:"model_name"`
	TouchpointCount int       `json:"touchpoint_count"`
	AttributedValue float64   `json:"attributed_value"`
	ComputedAt      time.Time `json:"computed_at"`
}
