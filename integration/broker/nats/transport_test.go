package nats_test

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/broker"
	"github.com/dmitrymomot/relay/core/event"
	natstransport "github.com/dmitrymomot/relay/integration/broker/nats"
)

type StockDepleted struct {
	SKU       string `json:"sku"`
	Warehouse string `json:"warehouse"`
}

// connectTestServer dials a local NATS server, skipping the test when no
// server is reachable.
func connectTestServer(t *testing.T) *nats.Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	conn, err := nats.Connect(nats.DefaultURL, nats.Timeout(500*time.Millisecond))
	if err != nil {
		t.Skipf("skipping test - no NATS server: %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}

// uniqueSubject keeps parallel tests off each other's subjects.
func uniqueSubject(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("relay.test.%s.%d", t.Name(), time.Now().UnixNano())
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil connection", func(t *testing.T) {
		t.Parallel()

		transport, err := natstransport.New(nil)
		assert.ErrorIs(t, err, natstransport.ErrNilConn)
		assert.Nil(t, transport)
	})
}

func TestFromURL(t *testing.T) {
	t.Parallel()

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()

		_, err := natstransport.FromURL("")
		assert.ErrorIs(t, err, natstransport.ErrEmptyConnectionURL)
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()

		_, err := natstransport.FromURL("nats://127.0.0.1:1")
		assert.ErrorIs(t, err, natstransport.ErrNATSNotReady)
	})
}

func TestConnect_UnreachableServer(t *testing.T) {
	t.Parallel()

	_, err := natstransport.Connect(context.Background(), natstransport.Config{
		ConnectionURL:  "nats://127.0.0.1:1",
		ConnectTimeout: 500 * time.Millisecond,
		RetryAttempts:  2,
		RetryInterval:  5 * time.Millisecond,
	})
	assert.ErrorIs(t, err, natstransport.ErrNATSNotReady)
}

func TestTransport_ReceiveBeforeSubscribe(t *testing.T) {
	t.Parallel()

	// Receive rejects an unsubscribed transport before touching the
	// connection, so no server is needed here.
	transport := &natstransport.Transport{}
	_, err := transport.Receive(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, natstransport.ErrNotSubscribed)
}

func TestTransport_Transient(t *testing.T) {
	t.Parallel()

	// The classifier only inspects the error, no live connection needed.
	transport := &natstransport.Transport{}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection closed", err: nats.ErrConnectionClosed, want: false},
		{name: "bad subscription", err: nats.ErrBadSubscription, want: false},
		{name: "invalid connection", err: nats.ErrInvalidConnection, want: false},
		{name: "flush timeout", err: nats.ErrTimeout, want: true},
		{name: "no servers", err: nats.ErrNoServers, want: true},
		{name: "reconnect buffer exceeded", err: nats.ErrReconnectBufExceeded, want: true},
		{name: "connection refused", err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED), want: true},
		{name: "application error", err: errors.New("permissions violation"), want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, transport.Transient(tt.err))
		})
	}
}

// ====== Integration (requires a local NATS server) ======

func TestTransport_PublishReceive(t *testing.T) {
	conn := connectTestServer(t)

	transport, err := natstransport.New(conn, natstransport.WithSubject(uniqueSubject(t)))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, transport.Subscribe(ctx))
	defer transport.Close()

	payload := []byte("origin-id hello")
	require.NoError(t, transport.Publish(ctx, payload))

	data, err := transport.Receive(ctx, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// An empty poll window reports no message, not an error.
	data, err = transport.Receive(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestTransport_SubjectIsolation(t *testing.T) {
	conn := connectTestServer(t)
	ctx := context.Background()

	listener, err := natstransport.New(conn, natstransport.WithSubject(uniqueSubject(t)+".a"))
	require.NoError(t, err)
	require.NoError(t, listener.Subscribe(ctx))
	defer listener.Close()

	other, err := natstransport.New(conn, natstransport.WithSubject(uniqueSubject(t)+".b"))
	require.NoError(t, err)

	require.NoError(t, other.Publish(ctx, []byte("wrong subject")))

	data, err := listener.Receive(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, data, "messages on other subjects must not arrive")
}

func TestTransport_CloseAndResubscribe(t *testing.T) {
	conn := connectTestServer(t)

	transport, err := natstransport.New(conn, natstransport.WithSubject(uniqueSubject(t)))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, transport.Subscribe(ctx))
	require.NoError(t, transport.Close())
	require.NoError(t, transport.Close(), "Close must be idempotent")

	// Publishing is untouched by a closed subscription.
	require.NoError(t, transport.Publish(ctx, []byte("still works")))

	// A closed transport can subscribe again for a bridge restart.
	require.NoError(t, transport.Subscribe(ctx))
	defer transport.Close()

	require.NoError(t, transport.Publish(ctx, []byte("after restart")))
	data, err := transport.Receive(ctx, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("after restart"), data)
}

func TestHealthcheck(t *testing.T) {
	conn := connectTestServer(t)
	check := natstransport.Healthcheck(conn)

	assert.NoError(t, check(context.Background()))

	conn.Close()
	assert.ErrorIs(t, check(context.Background()), natstransport.ErrHealthcheckFailed)
}

func TestBridge_OverNATS(t *testing.T) {
	ctx := context.Background()
	subject := uniqueSubject(t)

	transportA, err := natstransport.New(connectTestServer(t), natstransport.WithSubject(subject))
	require.NoError(t, err)
	transportB, err := natstransport.New(connectTestServer(t), natstransport.WithSubject(subject))
	require.NoError(t, err)

	bridgeA, err := broker.NewBridge(transportA, broker.WithStopCheckInterval(20*time.Millisecond))
	require.NoError(t, err)
	bridgeB, err := broker.NewBridge(transportB, broker.WithStopCheckInterval(20*time.Millisecond))
	require.NoError(t, err)

	receivedA := make(chan StockDepleted, 4)
	_, err = bridgeA.Subscribe(broker.NewHandlerFunc(func(ctx context.Context, evt StockDepleted) error {
		receivedA <- evt
		return nil
	}))
	require.NoError(t, err)

	receivedB := make(chan StockDepleted, 4)
	_, err = bridgeB.Subscribe(broker.NewHandlerFunc(func(ctx context.Context, evt StockDepleted) error {
		receivedB <- evt
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, bridgeA.Start(ctx))
	defer bridgeA.Stop()
	require.NoError(t, bridgeB.Start(ctx))
	defer bridgeB.Stop()

	require.NoError(t, bridgeA.Publish(ctx, event.NewEvent(StockDepleted{SKU: "SKU-9", Warehouse: "ams-1"})))

	// Both instances observe the event.
	for name, ch := range map[string]chan StockDepleted{"publisher": receivedA, "remote": receivedB} {
		select {
		case evt := <-ch:
			assert.Equal(t, "SKU-9", evt.SKU)
			assert.Equal(t, "ams-1", evt.Warehouse)
		case <-time.After(3 * time.Second):
			t.Fatalf("%s instance did not observe the event", name)
		}
	}

	// The publisher saw its own echo come back and dropped it.
	require.Eventually(t, func() bool {
		return bridgeA.Stats().DroppedSelf == 1
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, int64(1), bridgeB.Stats().Forwarded)
}
