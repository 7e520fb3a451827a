package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/pulsemetrics/attribution-engine/internal/domain"
	"github.com/pulsemetrics/attribution-engine/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

var storeTestBase = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

// buildTestConversion creates a conversion event record
func buildTestConversion(customerKey string, value float64, occurredAt time.Time) *schema.ConversionEvent {
	return &schema.ConversionEvent{
		CustomerKey:    customerKey,
		ConversionType: domain.ConversionTypePurchase,
		Value:          value,
		OccurredAt:     occurredAt,
	}
}

// buildTestTouchpoint creates a touchpoint record
func buildTestTouchpoint(customerKey string, channel domain.Channel, occurredAt time.Time) schema.Touchpoint {
	return schema.Touchpoint{
		CustomerKey:    customerKey,
		Channel:        channel,
		TouchpointType: domain.TouchpointTypeClick,
		OccurredAt:     occurredAt,
	}
}

// buildTestModel creates an attribution model record
func buildTestModel(name string, modelType domain.ModelType, parameters string) *schema.AttributionModel {
	m := &schema.AttributionModel{
		Name:      name,
		ModelType: modelType,
		IsActive:  true,
	}
	if parameters != "" {
		m.Parameters = datatypes.JSON(parameters)
	}
	return m
}

// buildTestResult creates an attribution result row for a pair
func buildTestResult(conversionID, touchpointID, modelID uint64, credit, attributedValue float64, position int, role domain.TouchpointRole) schema.AttributionResult {
	return schema.AttributionResult{
		ConversionID:      conversionID,
		TouchpointID:      touchpointID,
		ModelID:           modelID,
		Credit:            credit,
		AttributedValue:   attributedValue,
		SequencePosition:  position,
		TouchpointRole:    role,
		HoursToConversion: float64(position),
		ComputedAt:        storeTestBase,
	}
}

// seedPair inserts a conversion with touchpoints and a model, returning all IDs
func seedPair(t *testing.T, store Store, customerKey string, touchpointCount int) (*schema.ConversionEvent, []schema.Touchpoint, *schema.AttributionModel) {
	ctx := context.Background()

	conversion := buildTestConversion(customerKey, 200, storeTestBase)
	require.NoError(t, store.CreateConversionEvent(ctx, conversion))

	touchpoints := make([]schema.Touchpoint, touchpointCount)
	for i := 0; i < touchpointCount; i++ {
		touchpoints[i] = buildTestTouchpoint(customerKey, domain.ChannelPaidSearch,
			storeTestBase.Add(-time.Duration(touchpointCount-i)*time.Hour))
	}
	require.NoError(t, store.CreateTouchpoints(ctx, touchpoints))

	stored, err := store.ListTouchpointsInWindow(ctx, customerKey,
		storeTestBase.Add(-domain.DefaultLookback), storeTestBase)
	require.NoError(t, err)
	require.Len(t, stored, touchpointCount)

	model := buildTestModel("linear-"+customerKey, domain.ModelTypeLinear, "")
	require.NoError(t, store.UpsertAttributionModel(ctx, model))
	require.NotZero(t, model.ID)

	return conversion, stored, model
}

// =============================================================================
// Test: Conversions
// =============================================================================

func testConversionEvents(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create and get round trip", func(t *testing.T) {
		conversion := buildTestConversion("conv@example.com", 149.99, storeTestBase)
		require.NoError(t, store.CreateConversionEvent(ctx, conversion))
		require.NotZero(t, conversion.ID)

		got, err := store.GetConversionByID(ctx, conversion.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "conv@example.com", got.CustomerKey)
		assert.Equal(t, domain.ConversionTypePurchase, got.ConversionType)
		assert.InDelta(t, 149.99, got.Value, 1e-9)
		assert.True(t, got.OccurredAt.Equal(storeTestBase))
	})

	t.Run("missing conversion returns nil", func(t *testing.T) {
		got, err := store.GetConversionByID(ctx, 999999999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("negative value is rejected", func(t *testing.T) {
		err := store.CreateConversionEvent(ctx, buildTestConversion("bad@example.com", -1, storeTestBase))
		assert.ErrorIs(t, err, domain.ErrDataIntegrity)
	})

	t.Run("missing occurred_at is rejected", func(t *testing.T) {
		err := store.CreateConversionEvent(ctx, &schema.ConversionEvent{
			CustomerKey:    "bad@example.com",
			ConversionType: domain.ConversionTypeSignup,
		})
		assert.ErrorIs(t, err, domain.ErrDataIntegrity)
	})
}

func testListConversionIDsByTimeRange(t *testing.T, store Store) {
	ctx := context.Background()

	var ids []uint64
	for i := 0; i < 5; i++ {
		conversion := buildTestConversion("range@example.com", 10, storeTestBase.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.CreateConversionEvent(ctx, conversion))
		ids = append(ids, conversion.ID)
	}
	// One outside the range
	outside := buildTestConversion("range@example.com", 10, storeTestBase.Add(100*time.Hour))
	require.NoError(t, store.CreateConversionEvent(ctx, outside))

	from := storeTestBase
	to := storeTestBase.Add(5 * time.Hour)

	t.Run("pages in id order", func(t *testing.T) {
		page1, err := store.ListConversionIDsByTimeRange(ctx, from, to, 0, 3)
		require.NoError(t, err)
		assert.Equal(t, ids[:3], page1)

		page2, err := store.ListConversionIDsByTimeRange(ctx, from, to, page1[2], 3)
		require.NoError(t, err)
		assert.Equal(t, ids[3:], page2)
	})

	t.Run("upper bound is exclusive", func(t *testing.T) {
		all, err := store.ListConversionIDsByTimeRange(ctx, from, storeTestBase.Add(4*time.Hour), 0, 100)
		require.NoError(t, err)
		assert.Equal(t, ids[:4], all)
	})
}

// =============================================================================
// Test: Touchpoint window selection
// =============================================================================

func testTouchpointWindowBoundary(t *testing.T, store Store) {
	ctx := context.Background()
	customerKey := "window@example.com"
	conversionAt := storeTestBase
	windowStart := conversionAt.Add(-domain.DefaultLookback)

	touchpoints := []schema.Touchpoint{
		// Exactly at the window edge, eligible
		buildTestTouchpoint(customerKey, domain.ChannelEmail, windowStart),
		// One second too old, not eligible
		buildTestTouchpoint(customerKey, domain.ChannelOrganic, windowStart.Add(-time.Second)),
		// At the conversion moment, eligible
		buildTestTouchpoint(customerKey, domain.ChannelDirect, conversionAt),
		// After the conversion, not eligible
		buildTestTouchpoint(customerKey, domain.ChannelReferral, conversionAt.Add(time.Second)),
		// Same customer, well inside the window
		buildTestTouchpoint(customerKey, domain.ChannelPaidSearch, conversionAt.Add(-24*time.Hour)),
		// Different customer, same window
		buildTestTouchpoint("other@example.com", domain.ChannelPaidSearch, conversionAt.Add(-time.Hour)),
	}
	require.NoError(t, store.CreateTouchpoints(ctx, touchpoints))

	got, err := store.ListTouchpointsInWindow(ctx, customerKey, windowStart, conversionAt)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.ChannelEmail, got[0].Channel)
	assert.Equal(t, domain.ChannelPaidSearch, got[1].Channel)
	assert.Equal(t, domain.ChannelDirect, got[2].Channel)
	for _, tp := range got {
		assert.Equal(t, customerKey, tp.CustomerKey)
	}
}

func testTouchpointOrderingTiebreak(t *testing.T, store Store) {
	ctx := context.Background()
	customerKey := "ties@example.com"
	same := storeTestBase.Add(-time.Hour)

	touchpoints := []schema.Touchpoint{
		buildTestTouchpoint(customerKey, domain.ChannelEmail, same),
		buildTestTouchpoint(customerKey, domain.ChannelOrganic, same),
		buildTestTouchpoint(customerKey, domain.ChannelDirect, same),
	}
	require.NoError(t, store.CreateTouchpoints(ctx, touchpoints))

	got, err := store.ListTouchpointsInWindow(ctx, customerKey, storeTestBase.Add(-domain.DefaultLookback), storeTestBase)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Identical timestamps come back in insertion (id) order.
	assert.Less(t, got[0].ID, got[1].ID)
	assert.Less(t, got[1].ID, got[2].ID)
}

// =============================================================================
// Test: Attribution models
// =============================================================================

func testAttributionModels(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("upsert and lookups", func(t *testing.T) {
		model := buildTestModel("decay-default", domain.ModelTypeTimeDecay, `{"half_life_days": 7}`)
		require.NoError(t, store.UpsertAttributionModel(ctx, model))
		require.NotZero(t, model.ID)

		byID, err := store.GetModelByID(ctx, model.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, domain.ModelTypeTimeDecay, byID.ModelType)

		byName, err := store.GetModelByName(ctx, "decay-default")
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, model.ID, byName.ID)
	})

	t.Run("upsert advances the staleness watermark", func(t *testing.T) {
		model := buildTestModel("decay-tuned", domain.ModelTypeTimeDecay, `{"half_life_days": 7}`)
		require.NoError(t, store.UpsertAttributionModel(ctx, model))

		before, err := store.GetModelByName(ctx, "decay-tuned")
		require.NoError(t, err)
		require.NotNil(t, before)

		time.Sleep(10 * time.Millisecond)
		edited := buildTestModel("decay-tuned", domain.ModelTypeTimeDecay, `{"half_life_days": 14}`)
		require.NoError(t, store.UpsertAttributionModel(ctx, edited))

		after, err := store.GetModelByName(ctx, "decay-tuned")
		require.NoError(t, err)
		require.NotNil(t, after)
		assert.Equal(t, before.ID, after.ID)
		assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
		assert.JSONEq(t, `{"half_life_days": 14}`, string(after.Parameters))
	})

	t.Run("invalid parameters never reach the table", func(t *testing.T) {
		err := store.UpsertAttributionModel(ctx, buildTestModel("bad-decay", domain.ModelTypeTimeDecay, `{"half_life_days": -1}`))
		require.ErrorIs(t, err, domain.ErrInvalidModelParameters)

		got, lookupErr := store.GetModelByName(ctx, "bad-decay")
		require.NoError(t, lookupErr)
		assert.Nil(t, got)
	})

	t.Run("unknown model type is rejected", func(t *testing.T) {
		err := store.UpsertAttributionModel(ctx, buildTestModel("bad-type", domain.ModelType("markov"), ""))
		assert.ErrorIs(t, err, domain.ErrUnsupportedModelType)
	})

	t.Run("list active excludes disabled models", func(t *testing.T) {
		active := buildTestModel("list-active", domain.ModelTypeLinear, "")
		require.NoError(t, store.UpsertAttributionModel(ctx, active))

		disabled := buildTestModel("list-disabled", domain.ModelTypeLinear, "")
		disabled.IsActive = false
		require.NoError(t, store.UpsertAttributionModel(ctx, disabled))

		models, err := store.ListActiveModels(ctx)
		require.NoError(t, err)

		names := make(map[string]bool)
		for _, m := range models {
			names[m.Name] = true
		}
		assert.True(t, names["list-active"])
		assert.False(t, names["list-disabled"])
	})
}

// =============================================================================
// Test: ReplaceAttributionResults
// =============================================================================

func testReplaceAttributionResults(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("insert then idempotent replace", func(t *testing.T) {
		conversion, touchpoints, model := seedPair(t, store, "replace@example.com", 2)

		rows := []schema.AttributionResult{
			buildTestResult(conversion.ID, touchpoints[0].ID, model.ID, 0.5, 100, 1, domain.TouchpointRoleFirst),
			buildTestResult(conversion.ID, touchpoints[1].ID, model.ID, 0.5, 100, 2, domain.TouchpointRoleLast),
		}
		require.NoError(t, store.ReplaceAttributionResults(ctx, conversion.ID, model.ID, rows))

		stored, err := store.GetAttributionResults(ctx, conversion.ID, model.ID)
		require.NoError(t, err)
		require.Len(t, stored, 2)

		// Same payload again: still exactly two rows, no duplicates.
		rows = []schema.AttributionResult{
			buildTestResult(conversion.ID, touchpoints[0].ID, model.ID, 0.5, 100, 1, domain.TouchpointRoleFirst),
			buildTestResult(conversion.ID, touchpoints[1].ID, model.ID, 0.5, 100, 2, domain.TouchpointRoleLast),
		}
		require.NoError(t, store.ReplaceAttributionResults(ctx, conversion.ID, model.ID, rows))

		stored, err = store.GetAttributionResults(ctx, conversion.ID, model.ID)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, 1, stored[0].SequencePosition)
		assert.Equal(t, 2, stored[1].SequencePosition)
	})

	t.Run("empty replacement clears the pair", func(t *testing.T) {
		conversion, touchpoints, model := seedPair(t, store, "clear@example.com", 1)

		rows := []schema.AttributionResult{
			buildTestResult(conversion.ID, touchpoints[0].ID, model.ID, 1, 200, 1, domain.TouchpointRoleOnly),
		}
		require.NoError(t, store.ReplaceAttributionResults(ctx, conversion.ID, model.ID, rows))
		require.NoError(t, store.ReplaceAttributionResults(ctx, conversion.ID, model.ID, nil))

		stored, err := store.GetAttributionResults(ctx, conversion.ID, model.ID)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("replacing one pair leaves other models untouched", func(t *testing.T) {
		conversion, touchpoints, model := seedPair(t, store, "isolation@example.com", 1)
		other := buildTestModel("first-isolation", domain.ModelTypeFirstTouch, "")
		require.NoError(t, store.UpsertAttributionModel(ctx, other))

		require.NoError(t, store.ReplaceAttributionResults(ctx, conversion.ID, model.ID, []schema.AttributionResult{
			buildTestResult(conversion.ID, touchpoints[0].ID, model.ID, 1, 200, 1, domain.TouchpointRoleOnly),
		}))
		require.NoError(t, store.ReplaceAttributionResults(ctx, conversion.ID, other.ID, []schema.AttributionResult{
			buildTestResult(conversion.ID, touchpoints[0].ID, other.ID, 1, 200, 1, domain.TouchpointRoleOnly),
		}))

		// Clearing the linear pair must not touch the first_touch pair.
		require.NoError(t, store.ReplaceAttributionResults(ctx, conversion.ID, model.ID, nil))

		kept, err := store.GetAttributionResults(ctx, conversion.ID, other.ID)
		require.NoError(t, err)
		assert.Len(t, kept, 1)
	})

	t.Run("unknown conversion fails", func(t *testing.T) {
		_, _, model := seedPair(t, store, "unknown@example.com", 1)
		err := store.ReplaceAttributionResults(ctx, 999999999, model.ID, nil)
		assert.ErrorIs(t, err, domain.ErrConversionNotFound)
	})

	t.Run("mismatched rows are rejected", func(t *testing.T) {
		conversion, touchpoints, model := seedPair(t, store, "mismatch@example.com", 1)
		rows := []schema.AttributionResult{
			buildTestResult(conversion.ID+1, touchpoints[0].ID, model.ID, 1, 200, 1, domain.TouchpointRoleOnly),
		}
		err := store.ReplaceAttributionResults(ctx, conversion.ID, model.ID, rows)
		assert.ErrorIs(t, err, domain.ErrDataIntegrity)
	})
}

// =============================================================================
// Test: Stale pair detection
// =============================================================================

func testListStaleConversionModelPairs(t *testing.T, store Store) {
	ctx := context.Background()

	conversion, touchpoints, model := seedPair(t, store, "stale@example.com", 1)

	// No-touchpoint conversion must never show up as stale.
	empty := buildTestConversion("empty@example.com", 50, storeTestBase)
	require.NoError(t, store.CreateConversionEvent(ctx, empty))

	// data_driven models are not computable and must be skipped.
	dd := buildTestModel("stale-data-driven", domain.ModelTypeDataDriven, "")
	require.NoError(t, store.UpsertAttributionModel(ctx, dd))

	pairOf := func(pairs []StaleConversionModelPair, conversionID, modelID uint64) bool {
		for _, p := range pairs {
			if p.ConversionID == conversionID && p.ModelID == modelID {
				return true
			}
		}
		return false
	}

	pairs, err := store.ListStaleConversionModelPairs(ctx, domain.DefaultLookbackDays, 100)
	require.NoError(t, err)
	assert.True(t, pairOf(pairs, conversion.ID, model.ID), "unprocessed pair must be stale")
	assert.False(t, pairOf(pairs, empty.ID, model.ID), "conversion without touchpoints must not be stale")
	assert.False(t, pairOf(pairs, conversion.ID, dd.ID), "data_driven pair must not be stale")

	// Fresh results clear the staleness.
	require.NoError(t, store.ReplaceAttributionResults(ctx, conversion.ID, model.ID, []schema.AttributionResult{
		{
			ConversionID: conversion.ID, TouchpointID: touchpoints[0].ID, ModelID: model.ID,
			Credit: 1, AttributedValue: 200, SequencePosition: 1,
			TouchpointRole: domain.TouchpointRoleOnly, ComputedAt: time.Now(),
		},
	}))
	pairs, err = store.ListStaleConversionModelPairs(ctx, domain.DefaultLookbackDays, 100)
	require.NoError(t, err)
	assert.False(t, pairOf(pairs, conversion.ID, model.ID))

	// Editing the model advances updated_at past computed_at, stale again.
	time.Sleep(10 * time.Millisecond)
	edited := buildTestModel(model.Name, domain.ModelTypeLinear, "")
	require.NoError(t, store.UpsertAttributionModel(ctx, edited))

	pairs, err = store.ListStaleConversionModelPairs(ctx, domain.DefaultLookbackDays, 100)
	require.NoError(t, err)
	assert.True(t, pairOf(pairs, conversion.ID, model.ID), "edited model must re-stale its pairs")
}

// =============================================================================
// Test: Channel rollup
// =============================================================================

func testAttributedValueByChannel(t *testing.T, store Store) {
	ctx := context.Background()
	customerKey := "rollup@example.com"

	conversion := buildTestConversion(customerKey, 100, storeTestBase)
	require.NoError(t, store.CreateConversionEvent(ctx, conversion))

	touchpoints := []schema.Touchpoint{
		buildTestTouchpoint(customerKey, domain.ChannelPaidSearch, storeTestBase.Add(-3*time.Hour)),
		buildTestTouchpoint(customerKey, domain.ChannelEmail, storeTestBase.Add(-2*time.Hour)),
		buildTestTouchpoint(customerKey, domain.ChannelPaidSearch, storeTestBase.Add(-time.Hour)),
	}
	require.NoError(t, store.CreateTouchpoints(ctx, touchpoints))
	stored, err := store.ListTouchpointsInWindow(ctx, customerKey, storeTestBase.Add(-domain.DefaultLookback), storeTestBase)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	model := buildTestModel("rollup-linear", domain.ModelTypeLinear, "")
	require.NoError(t, store.UpsertAttributionModel(ctx, model))

	third := 1.0 / 3.0
	require.NoError(t, store.ReplaceAttributionResults(ctx, conversion.ID, model.ID, []schema.AttributionResult{
		buildTestResult(conversion.ID, stored[0].ID, model.ID, third, 100*third, 1, domain.TouchpointRoleFirst),
		buildTestResult(conversion.ID, stored[1].ID, model.ID, third, 100*third, 2, domain.TouchpointRoleMiddle),
		buildTestResult(conversion.ID, stored[2].ID, model.ID, third, 100*third, 3, domain.TouchpointRoleLast),
	}))

	rows, err := store.AttributedValueByChannel(ctx, model.ID, storeTestBase.Add(-time.Hour), storeTestBase.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.ChannelPaidSearch, rows[0].Channel)
	assert.InDelta(t, 200.0/3.0, rows[0].AttributedValue, 1e-6)
	assert.Equal(t, uint64(2), rows[0].ResultCount)

	assert.Equal(t, domain.ChannelEmail, rows[1].Channel)
	assert.InDelta(t, 100.0/3.0, rows[1].AttributedValue, 1e-6)
	assert.Equal(t, uint64(1), rows[1].ResultCount)

	// Conversions outside [from, to) do not contribute.
	rows, err = store.AttributedValueByChannel(ctx, model.ID, storeTestBase.Add(time.Hour), storeTestBase.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// RunStoreTests runs all store tests against the given implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"ConversionEvents", testConversionEvents},
		{"ListConversionIDsByTimeRange", testListConversionIDsByTimeRange},
		{"TouchpointWindowBoundary", testTouchpointWindowBoundary},
		{"TouchpointOrderingTiebreak", testTouchpointOrderingTiebreak},
		{"AttributionModels", testAttributionModels},
		{"ReplaceAttributionResults", testReplaceAttributionResults},
		{"ListStaleConversionModelPairs", testListStaleConversionModelPairs},
		{"AttributedValueByChannel", testAttributedValueByChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
