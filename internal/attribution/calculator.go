package attribution

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pulsemetrics/attribution-engine/internal/domain"
	"github.com/pulsemetrics/attribution-engine/internal/store/schema"
)

const hoursPerDay = 24.0

// Compute distributes the credit for one conversion across the eligible
// touchpoints under one model. It is a pure function: no storage access, no
// clock reads, deterministic for identical inputs. Touchpoints are ordered by
// occurred_at ascending with id as tiebreaker regardless of input order.
//
// The returned rows carry exactly one entry per touchpoint, credits summing
// to 1 and attributed values summing to the conversion value. A conversion
// with no touchpoints yields an empty result set, not an error.
func Compute(
	conversion schema.ConversionEvent,
	touchpoints []schema.Touchpoint,
	model schema.AttributionModel,
	computedAt time.Time,
) ([]schema.AttributionResult, error) {
	if err := validateInputs(conversion, touchpoints); err != nil {
		return nil, err
	}

	params, err := domain.ParseModelParams(model.ModelType, model.Parameters)
	if err != nil {
		return nil, err
	}

	n := len(touchpoints)
	if n == 0 {
		return []schema.AttributionResult{}, nil
	}

	ordered := make([]schema.Touchpoint, n)
	copy(ordered, touchpoints)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].OccurredAt.Equal(ordered[j].OccurredAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})

	credits, err := creditsFor(model.ModelType, params, conversion, ordered)
	if err != nil {
		return nil, err
	}

	results := make([]schema.AttributionResult, n)
	for i, tp := range ordered {
		results[i] = schema.AttributionResult{
			ConversionID:      conversion.ID,
			TouchpointID:      tp.ID,
			ModelID:           model.ID,
			Credit:            credits[i],
			AttributedValue:   credits[i] * conversion.Value,
			SequencePosition:  i + 1,
			TouchpointRole:    roleFor(i, n),
			HoursToConversion: conversion.OccurredAt.Sub(tp.OccurredAt).Hours(),
			ComputedAt:        computedAt,
		}
	}
	return results, nil
}

func validateInputs(conversion schema.ConversionEvent, touchpoints []schema.Touchpoint) error {
	if conversion.OccurredAt.IsZero() {
		return fmt.Errorf("%w: conversion %d has no occurred_at", domain.ErrDataIntegrity, conversion.ID)
	}
	if conversion.Value < 0 {
		return fmt.Errorf("%w: conversion %d has negative value %v", domain.ErrDataIntegrity, conversion.ID, conversion.Value)
	}
	for _, tp := range touchpoints {
		if tp.OccurredAt.After(conversion.OccurredAt) {
			return fmt.Errorf("%w: touchpoint %d occurred after conversion %d",
				domain.ErrDataIntegrity, tp.ID, conversion.ID)
		}
		if tp.CustomerKey != conversion.CustomerKey {
			return fmt.Errorf("%w: touchpoint %d belongs to a different customer than conversion %d",
				domain.ErrDataIntegrity, tp.ID, conversion.ID)
		}
	}
	return nil
}

// creditsFor computes the per-touchpoint credit shares for an ordered
// journey. len(result) == len(touchpoints) and the shares sum to 1.
func creditsFor(
	modelType domain.ModelType,
	params domain.ResolvedParams,
	conversion schema.ConversionEvent,
	touchpoints []schema.Touchpoint,
) ([]float64, error) {
	n := len(touchpoints)
	credits := make([]float64, n)

	switch modelType {
	case domain.ModelTypeFirstTouch:
		credits[0] = 1

	case domain.ModelTypeLastTouch:
		credits[n-1] = 1

	case domain.ModelTypeLinear:
		for i := range credits {
			credits[i] = 1.0 / float64(n)
		}

	case domain.ModelTypeTimeDecay:
		var sum float64
		for i, tp := range touchpoints {
			days := conversion.OccurredAt.Sub(tp.OccurredAt).Hours() / hoursPerDay
			credits[i] = math.Pow(0.5, days/params.HalfLifeDays)
			sum += credits[i]
		}
		// An aggressive half-life can underflow every raw weight to zero.
		// The curve's limit puts all credit on the most recent touchpoint,
		// so assign it there instead of normalizing 0/0 into NaN.
		if sum == 0 {
			credits[n-1] = 1
			break
		}
		for i := range credits {
			credits[i] /= sum
		}

	case domain.ModelTypePositionBased:
		positionBasedCredits(credits, params)

	default:
		// data_driven lands here as well; ParseModelParams already rejects
		// it, this guards direct callers.
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedModelType, modelType)
	}

	return credits, nil
}

// positionBasedCredits fills the position_based shares. The three configured
// pools are normalized by their sum so credit is conserved for any weights;
// with the default 0.4/0.2/0.4 the pool sum is 1 and the shares come out
// exact. Journeys too short to have a middle (or a separate last) collapse
// the missing pools into the remaining positions.
func positionBasedCredits(credits []float64, params domain.ResolvedParams) {
	n := len(credits)
	switch {
	case n == 1:
		credits[0] = 1
	case n == 2:
		sum := params.FirstWeight + params.LastWeight
		if sum == 0 {
			credits[0], credits[1] = 0.5, 0.5
			return
		}
		credits[0] = params.FirstWeight / sum
		credits[1] = params.LastWeight / sum
	default:
		sum := params.FirstWeight + params.MiddleWeight + params.LastWeight
		if sum == 0 {
			for i := range credits {
				credits[i] = 1.0 / float64(n)
			}
			return
		}
		middle := params.MiddleWeight / sum / float64(n-2)
		for i := 1; i < n-1; i++ {
			credits[i] = middle
		}
		credits[0] = params.FirstWeight / sum
		credits[n-1] = params.LastWeight / sum
	}
}

func roleFor(index, n int) domain.TouchpointRole {
	switch {
	case n == 1:
		return domain.TouchpointRoleOnly
	case index == 0:
		return domain.TouchpointRoleFirst
	case index == n-1:
		return domain.TouchpointRoleLast
	default:
		return domain.TouchpointRoleMiddle
	}
}
