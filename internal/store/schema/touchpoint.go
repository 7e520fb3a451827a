package schema

import (
	"time"

	"github.com/pulsemetrics/attribution-engine/internal/domain"
)

// Touchpoint represents the touchpoints table - individual marketing
// interactions (impressions, clicks, visits, emails) tied to a customer and
// a timestamp. Touchpoints carry no foreign key to conversions: the
// association is computed at calculation time by matching customer_key
// inside the lookback window.
type Touchpoint struct {
	// ID is the internal database primary key; also the stable tiebreaker
	// when two touchpoints share a timestamp
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CustomerKey is the stable identity of the person who interacted
	CustomerKey string `gorm:"column:customer_key;not null;type:text;index:idx_touchpoints_customer_time,priority:1"`
	// Channel identifies the marketing channel (paid-search, email, organic, ...)
	Channel domain.Channel `gorm:"column:channel;not null;type:text;index:idx_touchpoints_channel"`
	// TouchpointType identifies the interaction kind (impression, click, visit, ...)
	TouchpointType domain.TouchpointType `gorm:"column:touchpoint_type;not null;type:text"`
	// CampaignID is the external campaign reference, if any
	CampaignID *string `gorm:"column:campaign_id;type:text"`
	// CreativeID is the external creative/ad reference, if any
	CreativeID *string `gorm:"column:creative_id;type:text"`
	// Cost is the media spend recorded for this interaction
	Cost float64 `gorm:"column:cost;not null;default:0;type:numeric(14,4)"`
	// OccurredAt is when the interaction happened; immutable
	OccurredAt time.Time `gorm:"column:occurred_at;not null;type:timestamptz;index:idx_touchpoints_customer_time,priority:2"`
	// CreatedAt is when this record was ingested
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	AttributionResults []AttributionResult `gorm:"foreignKey:TouchpointID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Touchpoint model
func (Touchpoint) TableName() string {
	return "touchpoints"
}
