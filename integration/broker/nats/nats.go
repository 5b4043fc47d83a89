package nats

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dmitrymomot/relay/core/retry"
)

// Connect establishes a NATS connection from the config and verifies it
// before returning. Initial connection failures are retried with exponential
// backoff within the configured budget. Config-derived options are applied
// first, so callers can override any of them through extra.
func Connect(ctx context.Context, cfg Config, extra ...nats.Option) (*nats.Conn, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	reconnectWait := cfg.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := cfg.MaxReconnects
	if maxReconnects == 0 {
		maxReconnects = 10
	}
	clientName := cfg.ClientName
	if clientName == "" {
		clientName = "relay"
	}

	opts := []nats.Option{
		nats.Name(clientName),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
	}
	opts = append(opts, extra...)

	policy := retry.Policy{
		MaxAttempts:     attempts,
		InitialInterval: interval,
	}
	conn, err := retry.DoValue(ctx, policy, func(ctx context.Context) (*nats.Conn, error) {
		return nats.Connect(cfg.ConnectionURL, opts...)
	})
	if err != nil {
		return nil, errors.Join(ErrNATSNotReady, err)
	}

	return conn, nil
}

// Healthcheck returns a health check function that verifies the NATS
// connection with a server round trip. Suitable for readiness probes.
func Healthcheck(conn *nats.Conn) func(context.Context) error {
	return func(ctx context.Context) error {
		if !conn.IsConnected() {
			return errors.Join(ErrHealthcheckFailed, ErrNATSNotReady)
		}
		if err := conn.FlushWithContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
