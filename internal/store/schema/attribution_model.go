package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/pulsemetrics/attribution-engine/internal/domain"
)

// AttributionModel represents the attribution_models table - named,
// versionable credit-splitting configurations. Rows are edited by the
// configuration surface; the engine treats them as immutable during a run
// and uses UpdatedAt as the staleness watermark for recomputation.
type AttributionModel struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Name is the unique human-readable identifier of the model
	Name string `gorm:"column:name;not null;uniqueIndex;type:text"`
	// ModelType selects the weighting rule (first_touch, last_touch, linear,
	// time_decay, position_based, data_driven)
	ModelType domain.ModelType `gorm:"column:model_type;not null;type:text"`
	// Parameters holds model-specific tuning as JSON (half_life_days,
	// first_weight/middle_weight/last_weight); see domain.ModelParams
	Parameters datatypes.JSON `gorm:"column:parameters;type:jsonb"`
	// IsActive controls whether the model participates in recomputation
	IsActive bool `gorm:"column:is_active;not null;default:true"`
	// CreatedAt is when this model was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt advances on every parameter edit; results computed before it
	// are considered stale
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	AttributionResults []AttributionResult `gorm:"foreignKey:ModelID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the AttributionModel model
func (AttributionModel) TableName() string {
	return "attribution_models"
}
