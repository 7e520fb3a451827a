package messaging

import (
	"context"

	"github.com/pulsemetrics/attribution-engine/internal/domain"
)

// Publisher defines the interface for publishing events to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishAttributionRecomputed announces that a (conversion, model) pair
	// has fresh results
	PublishAttributionRecomputed(ctx context.Context, event *domain.AttributionRecomputed) error
	// Close closes the connection
	Close()
}
