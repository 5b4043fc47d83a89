package kafka_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/broker"
	"github.com/dmitrymomot/relay/core/event"
	kafkatransport "github.com/dmitrymomot/relay/integration/broker/kafka"
)

type ShipmentDispatched struct {
	TrackingID string `json:"tracking_id"`
	Carrier    string `json:"carrier"`
}

// testBrokers locates a local Kafka broker, skipping the test when none is
// reachable.
func testBrokers(t *testing.T) []string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	brokers := []string{"localhost:9092"}
	if v := os.Getenv("TEST_KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		t.Skipf("skipping test - no Kafka broker: %v", err)
	}
	_ = conn.Close()
	return brokers
}

// uniqueTopic keeps test runs off each other's auto-created topics.
func uniqueTopic(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("relay.test.%d", time.Now().UnixNano())
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("no brokers", func(t *testing.T) {
		t.Parallel()

		transport, err := kafkatransport.New(nil)
		assert.ErrorIs(t, err, kafkatransport.ErrNoBrokers)
		assert.Nil(t, transport)
	})

	t.Run("generates consumer group per transport", func(t *testing.T) {
		t.Parallel()

		a, err := kafkatransport.New([]string{"localhost:9092"})
		require.NoError(t, err)
		b, err := kafkatransport.New([]string{"localhost:9092"})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(a.GroupID(), "relay-"))
		assert.True(t, strings.HasPrefix(b.GroupID(), "relay-"))
		assert.NotEqual(t, a.GroupID(), b.GroupID(), "instances must not share a group")
	})

	t.Run("pinned consumer group", func(t *testing.T) {
		t.Parallel()

		transport, err := kafkatransport.New([]string{"localhost:9092"},
			kafkatransport.WithGroupID("relay-orders"),
		)
		require.NoError(t, err)
		assert.Equal(t, "relay-orders", transport.GroupID())
	})
}

func TestFromConfig_UnreachableBrokers(t *testing.T) {
	t.Parallel()

	_, err := kafkatransport.FromConfig(context.Background(), kafkatransport.Config{
		Brokers:       []string{"127.0.0.1:1"},
		RetryAttempts: 2,
		RetryInterval: 5 * time.Millisecond,
	})
	assert.ErrorIs(t, err, kafkatransport.ErrKafkaNotReady)
}

func TestTransport_ReceiveBeforeSubscribe(t *testing.T) {
	t.Parallel()

	transport, err := kafkatransport.New([]string{"localhost:9092"})
	require.NoError(t, err)

	_, err = transport.Receive(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, kafkatransport.ErrNotSubscribed)
}

func TestTransport_Transient(t *testing.T) {
	t.Parallel()

	transport, err := kafkatransport.New([]string{"localhost:9092"})
	require.NoError(t, err)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "leader not available", err: kafka.LeaderNotAvailable, want: true},
		{name: "rebalance in progress", err: kafka.RebalanceInProgress, want: true},
		{name: "invalid topic", err: kafka.InvalidTopic, want: false},
		{name: "message too large", err: kafka.MessageSizeTooLarge, want: false},
		{name: "connection refused", err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED), want: true},
		{name: "application error", err: errors.New("codec failure"), want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, transport.Transient(tt.err))
		})
	}
}

func TestHealthcheck_Unreachable(t *testing.T) {
	t.Parallel()

	check := kafkatransport.Healthcheck([]string{"127.0.0.1:1"})
	assert.ErrorIs(t, check(context.Background()), kafkatransport.ErrHealthcheckFailed)
}

// ====== Integration (requires a local Kafka broker) ======

func TestTransport_PublishReceive(t *testing.T) {
	brokers := testBrokers(t)
	topic := uniqueTopic(t)
	ctx := context.Background()

	transport, err := kafkatransport.New(brokers, kafkatransport.WithTopic(topic))
	require.NoError(t, err)
	defer transport.Shutdown()

	// Auto-create the topic before the consumer group resolves last
	// offsets, then let the group join complete.
	require.NoError(t, transport.Publish(ctx, []byte("warmup")))
	require.NoError(t, transport.Subscribe(ctx))
	_, err = transport.Receive(ctx, 5*time.Second)
	require.NoError(t, err)

	payload := []byte("origin-id hello")
	require.NoError(t, transport.Publish(ctx, payload))

	var got []byte
	deadline := time.Now().Add(15 * time.Second)
	for got == nil && time.Now().Before(deadline) {
		data, err := transport.Receive(ctx, 500*time.Millisecond)
		require.NoError(t, err)
		// The warmup record may still be in flight, wait for the real one.
		if string(data) == string(payload) {
			got = data
		}
	}
	assert.Equal(t, payload, got)
}

func TestTransport_CloseAndResubscribe(t *testing.T) {
	brokers := testBrokers(t)
	topic := uniqueTopic(t)
	ctx := context.Background()

	transport, err := kafkatransport.New(brokers, kafkatransport.WithTopic(topic))
	require.NoError(t, err)
	defer transport.Shutdown()

	require.NoError(t, transport.Publish(ctx, []byte("warmup")))
	require.NoError(t, transport.Subscribe(ctx))
	require.NoError(t, transport.Close())
	require.NoError(t, transport.Close(), "Close must be idempotent")

	// Publishing is untouched by a closed reader.
	require.NoError(t, transport.Publish(ctx, []byte("still works")))

	// A closed transport can subscribe again for a bridge restart.
	require.NoError(t, transport.Subscribe(ctx))
}

func TestBridge_OverKafka(t *testing.T) {
	brokers := testBrokers(t)
	topic := uniqueTopic(t)
	ctx := context.Background()

	transportA, err := kafkatransport.New(brokers, kafkatransport.WithTopic(topic))
	require.NoError(t, err)
	defer transportA.Shutdown()
	transportB, err := kafkatransport.New(brokers, kafkatransport.WithTopic(topic))
	require.NoError(t, err)
	defer transportB.Shutdown()

	// Auto-create the topic before the consumer groups resolve last offsets.
	require.NoError(t, transportA.Publish(ctx, []byte("warmup")))

	bridgeA, err := broker.NewBridge(transportA, broker.WithStopCheckInterval(100*time.Millisecond))
	require.NoError(t, err)
	bridgeB, err := broker.NewBridge(transportB, broker.WithStopCheckInterval(100*time.Millisecond))
	require.NoError(t, err)

	receivedA := make(chan ShipmentDispatched, 4)
	_, err = bridgeA.Subscribe(broker.NewHandlerFunc(func(ctx context.Context, evt ShipmentDispatched) error {
		receivedA <- evt
		return nil
	}))
	require.NoError(t, err)

	receivedB := make(chan ShipmentDispatched, 4)
	_, err = bridgeB.Subscribe(broker.NewHandlerFunc(func(ctx context.Context, evt ShipmentDispatched) error {
		receivedB <- evt
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, bridgeA.Start(ctx))
	defer bridgeA.Stop()
	require.NoError(t, bridgeB.Start(ctx))
	defer bridgeB.Stop()

	// Let both consumer groups finish joining before publishing.
	time.Sleep(3 * time.Second)

	require.NoError(t, bridgeA.Publish(ctx, event.NewEvent(ShipmentDispatched{TrackingID: "TRK-100", Carrier: "dhl"})))

	// Both instances observe the event.
	for name, ch := range map[string]chan ShipmentDispatched{"publisher": receivedA, "remote": receivedB} {
		select {
		case evt := <-ch:
			assert.Equal(t, "TRK-100", evt.TrackingID)
			assert.Equal(t, "dhl", evt.Carrier)
		case <-time.After(15 * time.Second):
			t.Fatalf("%s instance did not observe the event", name)
		}
	}

	// The publisher saw its own echo come back and dropped it.
	require.Eventually(t, func() bool {
		return bridgeA.Stats().DroppedSelf == 1
	}, 15*time.Second, 100*time.Millisecond)

	assert.Equal(t, int64(1), bridgeB.Stats().Forwarded)
}
