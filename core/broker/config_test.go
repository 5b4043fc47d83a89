package broker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/broker"
	"github.com/dmitrymomot/relay/core/event"
	"github.com/dmitrymomot/relay/core/retry"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := broker.DefaultConfig()
	assert.Equal(t, time.Second, cfg.StopCheckInterval)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, retry.DefaultConfig(), cfg.Retry)
}

func TestNewBridgeFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty config falls back to defaults", func(t *testing.T) {
		t.Parallel()

		bridge, err := broker.NewBridgeFromConfig(broker.Config{}, newFakeTransport())
		require.NoError(t, err)
		assert.NotNil(t, bridge)
	})

	t.Run("nil transport", func(t *testing.T) {
		t.Parallel()

		bridge, err := broker.NewBridgeFromConfig(broker.DefaultConfig(), nil)
		assert.ErrorIs(t, err, broker.ErrNilTransport)
		assert.Nil(t, bridge)
	})

	t.Run("config values apply", func(t *testing.T) {
		t.Parallel()

		cfg := broker.Config{StopCheckInterval: 20 * time.Millisecond}
		bridge, err := broker.NewBridgeFromConfig(cfg, newFakeTransport())
		require.NoError(t, err)

		require.NoError(t, bridge.Start(context.Background()))
		start := time.Now()
		require.NoError(t, bridge.Stop())
		assert.Less(t, time.Since(start), 500*time.Millisecond,
			"a cooperative stop is observed within one configured poll window")
	})

	t.Run("options override config", func(t *testing.T) {
		t.Parallel()

		cfg := broker.Config{
			StopCheckInterval: time.Hour,
			ShutdownTimeout:   time.Second,
		}
		bridge, err := broker.NewBridgeFromConfig(cfg, newFakeTransport(),
			broker.WithStopCheckInterval(10*time.Millisecond))
		require.NoError(t, err)

		require.NoError(t, bridge.Start(context.Background()))
		start := time.Now()
		require.NoError(t, bridge.Stop())
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("retry tuning from config", func(t *testing.T) {
		t.Parallel()

		transport := &classifierTransport{fakeTransport: newFakeTransport()}
		transport.publishHook = func([]byte) error { return errTransient }

		cfg := broker.Config{
			StopCheckInterval: 10 * time.Millisecond,
			Retry: retry.Config{
				MaxAttempts:     3,
				InitialInterval: time.Millisecond,
			},
		}
		bridge, err := broker.NewBridgeFromConfig(cfg, transport)
		require.NoError(t, err)

		err = bridge.Publish(context.Background(), event.NewEvent(OrderPlaced{OrderID: "o-1"}))
		require.Error(t, err)
		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, int32(3), transport.publishCalls.Load(), "attempt budget comes from the config")
	})
}
