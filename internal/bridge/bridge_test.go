package bridge_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"

	"github.com/pulsemetrics/attribution-engine/internal/adapter"
	"github.com/pulsemetrics/attribution-engine/internal/bridge"
	"github.com/pulsemetrics/attribution-engine/internal/domain"
	"github.com/pulsemetrics/attribution-engine/internal/logger"
	mockspkg "github.com/pulsemetrics/attribution-engine/internal/mocks"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testBridgeMocks contains all the mocks needed for testing the bridge
type testBridgeMocks struct {
	ctrl       *gomock.Controller
	natsJS     *mockspkg.MockNatsJetStream
	natsConn   *mockspkg.MockNatsConn
	jetStream  *mockspkg.MockJetStream
	recomputer *mockspkg.MockRecomputer
	json       *mockspkg.MockJSON
}

// setupTestBridge creates all the mocks for testing
func setupTestBridge(t *testing.T) *testBridgeMocks {
	ctrl := gomock.NewController(t)

	return &testBridgeMocks{
		ctrl:       ctrl,
		natsJS:     mockspkg.NewMockNatsJetStream(ctrl),
		natsConn:   mockspkg.NewMockNatsConn(ctrl),
		jetStream:  mockspkg.NewMockJetStream(ctrl),
		recomputer: mockspkg.NewMockRecomputer(ctrl),
		json:       mockspkg.NewMockJSON(ctrl),
	}
}

// tearDownTestBridge cleans up the test mocks
func tearDownTestBridge(mocks *testBridgeMocks) {
	mocks.ctrl.Finish()
}

func testBridgeConfig() bridge.Config {
	return bridge.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "conversions",
		ConsumerName:   "attribution-bridge",
		MaxReconnects:  10,
		ReconnectWait:  1 * time.Second,
		ConnectionName: "test-bridge",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
	}
}

func TestBridge_NewBridge_Success(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	config := testBridgeConfig()

	mocks.natsJS.
		EXPECT().
		Connect(config.URL, gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(config, mocks.natsJS, mocks.recomputer, mocks.json)

	assert.NoError(t, err)
	assert.NotNil(t, b)
}

func TestBridge_NewBridge_ConnectError(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(nil, nil, assert.AnError)

	b, err := bridge.NewBridge(testBridgeConfig(), mocks.natsJS, mocks.recomputer, mocks.json)

	assert.Error(t, err)
	assert.Nil(t, b)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

func TestBridge_Run_CreateConsumerError(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	ctx := context.Background()
	config := testBridgeConfig()

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(config, mocks.natsJS, mocks.recomputer, mocks.json)
	assert.NoError(t, err)

	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(),
			"conversions",
			jetstream.ConsumerConfig{
				Durable:       config.ConsumerName,
				AckPolicy:     jetstream.AckExplicitPolicy,
				AckWait:       config.AckWaitTimeout,
				MaxDeliver:    config.MaxDeliver,
				FilterSubject: "conversions.>",
			}).
		Return(nil, assert.AnError)

	err = b.Run(ctx)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create/update consumer")
}

func TestBridge_Run_ConsumerInfoError(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	ctx := context.Background()

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(testBridgeConfig(), mocks.natsJS, mocks.recomputer, mocks.json)
	assert.NoError(t, err)

	consumer := mockspkg.NewMockNatsConsumer(mocks.ctrl)
	consumer.EXPECT().
		Info(gomock.Any()).
		Return(nil, assert.AnError)

	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	err = b.Run(ctx)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get consumer info")
}

func TestBridge_Run_ContextCancellation(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	ctx, cancel := context.WithCancel(context.Background())

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(testBridgeConfig(), mocks.natsJS, mocks.recomputer, mocks.json)
	assert.NoError(t, err)

	consumer := mockspkg.NewMockNatsConsumer(mocks.ctrl)
	consumeContext := mockspkg.NewMockConsumeContext(mocks.ctrl)
	consumeContext.EXPECT().Stop().AnyTimes()

	consumer.EXPECT().
		Info(gomock.Any()).
		Return(&jetstream.ConsumerInfo{Name: "attribution-bridge"}, nil)
	consumer.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(handler adapter.MessageHandler, opts ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			go cancel()
			return consumeContext, nil
		})

	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	errChan := make(chan error, 1)
	go func() {
		errChan <- b.Run(ctx)
	}()

	select {
	case err := <-errChan:
		assert.Error(t, err)
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out")
	}
}

// runBridgeWithHandler starts the bridge and returns the captured message
// handler for direct invocation.
func runBridgeWithHandler(t *testing.T, ctx context.Context, mocks *testBridgeMocks, b bridge.Bridge) adapter.MessageHandler {
	var messageHandler adapter.MessageHandler
	handlerReady := make(chan struct{})

	consumer := mockspkg.NewMockNatsConsumer(mocks.ctrl)
	consumeContext := mockspkg.NewMockConsumeContext(mocks.ctrl)
	consumeContext.EXPECT().Stop().AnyTimes()

	consumer.EXPECT().
		Info(gomock.Any()).
		Return(&jetstream.ConsumerInfo{Name: "attribution-bridge"}, nil)
	consumer.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(handler adapter.MessageHandler, opts ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			messageHandler = handler
			close(handlerReady)
			return consumeContext, nil
		})

	mocks.jetStream.
		EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(consumer, nil)

	go func() { _ = b.Run(ctx) }()

	select {
	case <-handlerReady:
	case <-time.After(5 * time.Second):
		t.Fatal("Consumer was never set up")
	}

	return messageHandler
}

func TestBridge_ProcessMessage_Success(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(testBridgeConfig(), mocks.natsJS, mocks.recomputer, mocks.json)
	assert.NoError(t, err)

	event := domain.ConversionMessage{
		EventID:      "evt-1",
		EventType:    domain.ConversionEventCreated,
		ConversionID: 42,
		CustomerKey:  "alice@example.com",
		OccurredAt:   time.Now(),
	}
	eventJSON := []byte(`{"event_id":"evt-1","event_type":"created","conversion_id":42}`)

	msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
	msg.EXPECT().Data().Return(eventJSON).MinTimes(1)
	msg.EXPECT().Metadata().
		Return(&jetstream.MsgMetadata{NumDelivered: 1}, nil).
		MinTimes(1)

	mocks.json.
		EXPECT().
		Unmarshal(eventJSON, gomock.Any()).
		DoAndReturn(func(data []byte, v interface{}) error {
			*v.(*domain.ConversionMessage) = event
			return nil
		})

	acked := make(chan struct{})
	mocks.recomputer.
		EXPECT().
		RecomputeConversionAllModels(gomock.Any(), uint64(42)).
		Return(nil)
	msg.EXPECT().Ack().DoAndReturn(func() error {
		close(acked)
		return nil
	})

	messageHandler := runBridgeWithHandler(t, ctx, mocks, b)
	messageHandler(msg)

	select {
	case <-acked:
	case <-time.After(5 * time.Second):
		t.Fatal("Message was never acknowledged")
	}
}

func TestBridge_ProcessMessage_InvalidJSON(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(testBridgeConfig(), mocks.natsJS, mocks.recomputer, mocks.json)
	assert.NoError(t, err)

	invalidJSON := []byte(`{invalid json}`)
	msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
	msg.EXPECT().Data().Return(invalidJSON).MinTimes(1)
	msg.EXPECT().Metadata().
		Return(&jetstream.MsgMetadata{NumDelivered: 1}, nil).
		AnyTimes()

	mocks.json.
		EXPECT().
		Unmarshal(invalidJSON, gomock.Any()).
		Return(assert.AnError)

	terminated := make(chan struct{})
	msg.EXPECT().Term().DoAndReturn(func() error {
		close(terminated)
		return nil
	})

	messageHandler := runBridgeWithHandler(t, ctx, mocks, b)
	messageHandler(msg)

	select {
	case <-terminated:
	case <-time.After(5 * time.Second):
		t.Fatal("Message was never terminated")
	}
}

func TestBridge_ProcessMessage_MalformedEvent(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(testBridgeConfig(), mocks.natsJS, mocks.recomputer, mocks.json)
	assert.NoError(t, err)

	// Parseable payload with a zero conversion ID
	eventJSON := []byte(`{"event_id":"evt-2","event_type":"created","conversion_id":0}`)
	msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
	msg.EXPECT().Data().Return(eventJSON).MinTimes(1)
	msg.EXPECT().Metadata().
		Return(&jetstream.MsgMetadata{NumDelivered: 1}, nil).
		AnyTimes()

	mocks.json.
		EXPECT().
		Unmarshal(eventJSON, gomock.Any()).
		DoAndReturn(func(data []byte, v interface{}) error {
			*v.(*domain.ConversionMessage) = domain.ConversionMessage{
				EventID:   "evt-2",
				EventType: domain.ConversionEventCreated,
			}
			return nil
		})

	terminated := make(chan struct{})
	msg.EXPECT().Term().DoAndReturn(func() error {
		close(terminated)
		return nil
	})

	messageHandler := runBridgeWithHandler(t, ctx, mocks, b)
	messageHandler(msg)

	select {
	case <-terminated:
	case <-time.After(5 * time.Second):
		t.Fatal("Message was never terminated")
	}
}

func TestBridge_ProcessMessage_UnknownEventType(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(testBridgeConfig(), mocks.natsJS, mocks.recomputer, mocks.json)
	assert.NoError(t, err)

	eventJSON := []byte(`{"event_id":"evt-4","event_type":"archived","conversion_id":12}`)
	msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
	msg.EXPECT().Data().Return(eventJSON).MinTimes(1)
	msg.EXPECT().Metadata().
		Return(&jetstream.MsgMetadata{NumDelivered: 1}, nil).
		AnyTimes()

	mocks.json.
		EXPECT().
		Unmarshal(eventJSON, gomock.Any()).
		DoAndReturn(func(data []byte, v interface{}) error {
			*v.(*domain.ConversionMessage) = domain.ConversionMessage{
				EventID:      "evt-4",
				EventType:    domain.ConversionEventType("archived"),
				ConversionID: 12,
			}
			return nil
		})

	terminated := make(chan struct{})
	msg.EXPECT().Term().DoAndReturn(func() error {
		close(terminated)
		return nil
	})

	messageHandler := runBridgeWithHandler(t, ctx, mocks, b)
	messageHandler(msg)

	select {
	case <-terminated:
	case <-time.After(5 * time.Second):
		t.Fatal("Message was never terminated")
	}
}

func TestBridge_ProcessMessage_RecomputeError(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	b, err := bridge.NewBridge(testBridgeConfig(), mocks.natsJS, mocks.recomputer, mocks.json)
	assert.NoError(t, err)

	eventJSON := []byte(`{"event_id":"evt-3","event_type":"invalidated","conversion_id":7}`)
	msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
	msg.EXPECT().Data().Return(eventJSON).MinTimes(1)
	msg.EXPECT().Metadata().
		Return(&jetstream.MsgMetadata{NumDelivered: 2}, nil).
		MinTimes(1)

	mocks.json.
		EXPECT().
		Unmarshal(eventJSON, gomock.Any()).
		DoAndReturn(func(data []byte, v interface{}) error {
			*v.(*domain.ConversionMessage) = domain.ConversionMessage{
				EventID:      "evt-3",
				EventType:    domain.ConversionEventInvalidated,
				ConversionID: 7,
			}
			return nil
		})

	mocks.recomputer.
		EXPECT().
		RecomputeConversionAllModels(gomock.Any(), uint64(7)).
		Return(assert.AnError)

	naked := make(chan struct{})
	msg.EXPECT().Nak().DoAndReturn(func() error {
		close(naked)
		return nil
	})

	messageHandler := runBridgeWithHandler(t, ctx, mocks, b)
	messageHandler(msg)

	select {
	case <-naked:
	case <-time.After(5 * time.Second):
		t.Fatal("Message was never NAKed")
	}
}

func TestBridge_Close(t *testing.T) {
	mocks := setupTestBridge(t)
	defer tearDownTestBridge(mocks)

	mocks.natsJS.
		EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(mocks.natsConn, mocks.jetStream, nil)

	mocks.natsConn.
		EXPECT().
		Close()

	b, err := bridge.NewBridge(testBridgeConfig(), mocks.natsJS, mocks.recomputer, mocks.json)
	assert.NoError(t, err)

	b.Close()
}
