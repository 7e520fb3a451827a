package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/pulsemetrics/attribution-engine/internal/adapter"
	"github.com/pulsemetrics/attribution-engine/internal/domain"
	"github.com/pulsemetrics/attribution-engine/internal/engine"
	"github.com/pulsemetrics/attribution-engine/internal/logger"
)

// Config holds the configuration for the conversion event bridge
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

// Bridge defines the interface for the conversion event bridge, which
// consumes conversion lifecycle messages and triggers recomputation
type Bridge interface {
	// Run starts consuming conversion events until the context is canceled
	Run(ctx context.Context) error
	// Close closes the bridge and cleans up resources
	Close()
}

type bridge struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	recomputer engine.Recomputer
	json       adapter.JSON
	config     Config
}

// NewBridge creates a new conversion event bridge
func NewBridge(
	cfg Config,
	natsJS adapter.NatsJetStream,
	recomputer engine.Recomputer,
	jsonAdapter adapter.JSON,
) (Bridge, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	b := &bridge{
		nc:         nc,
		js:         js,
		recomputer: recomputer,
		json:       jsonAdapter,
		config:     cfg,
	}

	return b, nil
}

// Run starts consuming conversion events
func (b *bridge) Run(ctx context.Context) error {
	logger.Info("Starting conversion bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("consumer", b.config.ConsumerName),
	)

	// Subscribe to all conversion lifecycle subjects
	subject := "conversions.>"

	// Create or get consumer
	consumerConfig := jetstream.ConsumerConfig{
		Durable:       b.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.config.AckWaitTimeout,
		MaxDeliver:    b.config.MaxDeliver,
		FilterSubject: subject,
	}

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	// Create subscription
	msgChan := make(chan adapter.Message, 100)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming messages")

	// Process messages
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down conversion bridge")
			return ctx.Err()
		case msg := <-msgChan:
			// Spawn goroutine to handle message asynchronously
			go b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage processes a single NATS message. Malformed payloads are
// terminated so the stream never redelivers them; recompute failures are
// NAKed for redelivery up to MaxDeliver.
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	// Get metadata for logging
	metadata, _ := msg.Metadata()

	// Parse event
	var event domain.ConversionMessage
	if err := b.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error(err, zap.String("message", "Failed to unmarshal conversion event"))
		// Terminate message for unparseable data
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	if event.ConversionID == 0 || !validEventType(event.EventType) {
		logger.Warn("Dropping malformed conversion event",
			zap.String("eventID", event.EventID),
			zap.String("eventType", string(event.EventType)),
			zap.Uint64("conversionID", event.ConversionID),
		)
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	var deliveryCount uint64
	if metadata != nil {
		deliveryCount = metadata.NumDelivered
	}
	logger.Info("Received conversion event",
		zap.String("eventID", event.EventID),
		zap.String("eventType", string(event.EventType)),
		zap.Uint64("conversionID", event.ConversionID),
		zap.Uint64("deliveryCount", deliveryCount),
	)

	// Both created and invalidated events mean the same thing here: the
	// conversion's results are out of date under every active model.
	if err := b.recomputer.RecomputeConversionAllModels(ctx, event.ConversionID); err != nil {
		logger.Error(err, zap.String("message", "Failed to recompute conversion"))
		// NAK to retry
		if err := msg.Nak(); err != nil {
			logger.Error(err, zap.String("message", "Failed to NAK message"))
		}
		return
	}

	// ACK message after successful processing
	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "Failed to ACK message"))
	}
}

func validEventType(t domain.ConversionEventType) bool {
	return t == domain.ConversionEventCreated || t == domain.ConversionEventInvalidated
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc == nil {
		return
	}

	b.nc.Close()
}
