package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultLookbackDays is the attribution lookback window applied when no
// override is configured: touchpoints older than this (relative to the
// conversion) are never credited.
const DefaultLookbackDays = 90

// DefaultLookback is DefaultLookbackDays as a duration.
const DefaultLookback = DefaultLookbackDays * 24 * time.Hour

// ConversionType represents the kind of goal-completing customer action
type ConversionType string

const (
	ConversionTypePurchase     ConversionType = "purchase"
	ConversionTypeSignup       ConversionType = "signup"
	ConversionTypeLead         ConversionType = "lead"
	ConversionTypeTrial        ConversionType = "trial"
	ConversionTypeSubscription ConversionType = "subscription"
)

// IsValidConversionType checks if a conversion type is valid
func IsValidConversionType(t ConversionType) bool {
	switch t {
	case ConversionTypePurchase, ConversionTypeSignup, ConversionTypeLead,
		ConversionTypeTrial, ConversionTypeSubscription:
		return true
	}
	return false
}

// Channel represents the marketing channel a touchpoint came from
type Channel string

const (
	ChannelPaidSearch Channel = "paid-search"
	ChannelPaidSocial Channel = "paid-social"
	ChannelEmail      Channel = "email"
	ChannelOrganic    Channel = "organic"
	ChannelDirect     Channel = "direct"
	ChannelReferral   Channel = "referral"
	ChannelSocial     Channel = "social"
)

// IsValidChannel checks if a channel is valid
func IsValidChannel(c Channel) bool {
	switch c {
	case ChannelPaidSearch, ChannelPaidSocial, ChannelEmail, ChannelOrganic,
		ChannelDirect, ChannelReferral, ChannelSocial:
		return true
	}
	return false
}

// TouchpointType represents the kind of interaction a touchpoint records
type TouchpointType string

const (
	TouchpointTypeImpression TouchpointType = "impression"
	TouchpointTypeClick      TouchpointType = "click"
	TouchpointTypeVisit      TouchpointType = "visit"
	TouchpointTypeEngagement TouchpointType = "engagement"
	TouchpointTypeEmail      TouchpointType = "email"
	TouchpointTypeSocial     TouchpointType = "social"
)

// ModelType represents the credit-splitting rule of an attribution model
type ModelType string

const (
	ModelTypeFirstTouch    ModelType = "first_touch"
	ModelTypeLastTouch     ModelType = "last_touch"
	ModelTypeLinear        ModelType = "linear"
	ModelTypeTimeDecay     ModelType = "time_decay"
	ModelTypePositionBased ModelType = "position_based"
	// ModelTypeDataDriven is declared for forward compatibility but has no
	// computation logic yet; the calculator rejects it.
	ModelTypeDataDriven ModelType = "data_driven"
)

// IsValidModelType checks if a model type is one the registry accepts
func IsValidModelType(t ModelType) bool {
	switch t {
	case ModelTypeFirstTouch, ModelTypeLastTouch, ModelTypeLinear,
		ModelTypeTimeDecay, ModelTypePositionBased, ModelTypeDataDriven:
		return true
	}
	return false
}

// TouchpointRole describes a touchpoint's position within the journey
type TouchpointRole string

const (
	TouchpointRoleFirst  TouchpointRole = "first"
	TouchpointRoleMiddle TouchpointRole = "middle"
	TouchpointRoleLast   TouchpointRole = "last"
	TouchpointRoleOnly   TouchpointRole = "only"
)

// Default model parameters applied when the stored parameters omit a value.
const (
	DefaultHalfLifeDays = 7.0
	DefaultFirstWeight  = 0.4
	DefaultMiddleWeight = 0.2
	DefaultLastWeight   = 0.4
)

// ModelParams holds the model-specific tuning knobs stored as jsonb on the
// attribution model row. Pointer fields distinguish "absent" from zero so
// defaults only apply when a key is missing.
type ModelParams struct {
	// HalfLifeDays is the time_decay half-life: a touchpoint this many days
	// before the conversion receives half the raw weight of one at the
	// conversion moment.
	HalfLifeDays *float64 `json:"half_life_days,omitempty"`
	// FirstWeight/MiddleWeight/LastWeight are the position_based credit
	// shares. MiddleWeight is split evenly across interior touchpoints.
	FirstWeight  *float64 `json:"first_weight,omitempty"`
	MiddleWeight *float64 `json:"middle_weight,omitempty"`
	LastWeight   *float64 `json:"last_weight,omitempty"`
}

// ResolvedParams is ModelParams with defaults applied and validated against
// a concrete model type.
type ResolvedParams struct {
	HalfLifeDays float64
	FirstWeight  float64
	MiddleWeight float64
	LastWeight   float64
}

// ParseModelParams decodes the raw jsonb parameters of a model, applies
// defaults and validates them against the model type. A nil/empty raw value
// yields the defaults. Invalid or internally inconsistent parameters return
// ErrInvalidModelParameters.
func ParseModelParams(modelType ModelType, raw []byte) (ResolvedParams, error) {
	var p ModelParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return ResolvedParams{}, fmt.Errorf("%w: malformed parameters json: %v", ErrInvalidModelParameters, err)
		}
	}

	resolved := ResolvedParams{
		HalfLifeDays: DefaultHalfLifeDays,
		FirstWeight:  DefaultFirstWeight,
		MiddleWeight: DefaultMiddleWeight,
		LastWeight:   DefaultLastWeight,
	}
	if p.HalfLifeDays != nil {
		resolved.HalfLifeDays = *p.HalfLifeDays
	}
	if p.FirstWeight != nil {
		resolved.FirstWeight = *p.FirstWeight
	}
	if p.MiddleWeight != nil {
		resolved.MiddleWeight = *p.MiddleWeight
	}
	if p.LastWeight != nil {
		resolved.LastWeight = *p.LastWeight
	}

	switch modelType {
	case ModelTypeTimeDecay:
		if resolved.HalfLifeDays <= 0 {
			return ResolvedParams{}, fmt.Errorf("%w: half_life_days must be > 0, got %v", ErrInvalidModelParameters, resolved.HalfLifeDays)
		}
	case ModelTypePositionBased:
		for name, w := range map[string]float64{
			"first_weight":  resolved.FirstWeight,
			"middle_weight": resolved.MiddleWeight,
			"last_weight":   resolved.LastWeight,
		} {
			if w < 0 || w > 1 {
				return ResolvedParams{}, fmt.Errorf("%w: %s must be in [0,1], got %v", ErrInvalidModelParameters, name, w)
			}
		}
		if resolved.FirstWeight+resolved.LastWeight > 1 {
			return ResolvedParams{}, fmt.Errorf("%w: first_weight + last_weight must be <= 1, got %v",
				ErrInvalidModelParameters, resolved.FirstWeight+resolved.LastWeight)
		}
	case ModelTypeFirstTouch, ModelTypeLastTouch, ModelTypeLinear:
		// No tunable parameters.
	case ModelTypeDataDriven:
		return ResolvedParams{}, fmt.Errorf("%w: %s", ErrUnsupportedModelType, modelType)
	default:
		return ResolvedParams{}, fmt.Errorf("%w: %s", ErrUnsupportedModelType, modelType)
	}

	return resolved, nil
}
