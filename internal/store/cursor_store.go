package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/pulsemetrics/attribution-engine/internal/store/schema"
)

// CursorStore defines the interface for storing and retrieving backfill
// checkpoints, so an interrupted run can resume where it stopped instead of
// recomputing from the beginning of the range.
//
//go:generate mockgen -source=cursor_store.go -destination=../mocks/cursor_store.go -package=mocks
type CursorStore interface {
	// GetBackfillCursor retrieves the last fully processed conversion ID for
	// a named backfill scope
	GetBackfillCursor(ctx context.Context, scope string) (uint64, error)
	// SetBackfillCursor stores the last fully processed conversion ID for a
	// named backfill scope
	SetBackfillCursor(ctx context.Context, scope string, conversionID uint64) error
}

type cursorStore struct {
	db *gorm.DB
}

// NewCursorStore creates a new cursor store
func NewCursorStore(db *gorm.DB) CursorStore {
	return &cursorStore{db: db}
}

// GetBackfillCursor retrieves the last fully processed conversion ID for a named backfill scope
func (s *cursorStore) GetBackfillCursor(ctx context.Context, scope string) (uint64, error) {
	key := fmt.Sprintf("backfill_cursor:%s", scope)

	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil // Return 0 if no cursor exists
		}
		return 0, fmt.Errorf("failed to get backfill cursor: %w", err)
	}

	conversionID, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse backfill cursor: %w", err)
	}

	return conversionID, nil
}

// SetBackfillCursor stores the last fully processed conversion ID for a named backfill scope
func (s *cursorStore) SetBackfillCursor(ctx context.Context, scope string, conversionID uint64) error {
	key := fmt.Sprintf("backfill_cursor:%s", scope)
	value := strconv.FormatUint(conversionID, 10)

	kv := schema.KeyValueStore{
		Key:   key,
		Value: value,
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set backfill cursor: %w", err)
	}

	return nil
}
