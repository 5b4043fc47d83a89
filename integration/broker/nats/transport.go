package nats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dmitrymomot/relay/core/broker"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/retry"
)

// DefaultSubject is the NATS subject used when none is configured.
const DefaultSubject = "relay.events"

// Transport carries broker notifications over a core NATS subject. The
// client reconnects on its own within the configured budget and restores
// subscriptions afterwards, so transient receive errors can simply be
// retried.
type Transport struct {
	conn     *nats.Conn
	subject  string
	ownsConn bool
	log      *slog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

var (
	_ broker.Transport           = (*Transport)(nil)
	_ broker.TransientClassifier = (*Transport)(nil)
)

// Option configures a Transport.
type Option func(*Transport)

// WithSubject overrides the subject notifications travel on.
func WithSubject(subject string) Option {
	return func(t *Transport) {
		if subject != "" {
			t.subject = subject
		}
	}
}

// WithLogger sets the logger for connection events (async errors,
// disconnects, reconnects). Defaults to a no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *Transport) {
		if log != nil {
			t.log = log
		}
	}
}

// LogHandlers returns connection options that report async errors,
// disconnects, and reconnects to the logger. FromURL and FromConfig
// install these automatically; pass them to Connect when building a
// connection for New.
func LogHandlers(log *slog.Logger) []nats.Option {
	return []nats.Option{
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error("nats async error", logger.Error(err))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", logger.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("nats reconnected")
		}),
	}
}

func newTransport(opts []Option) *Transport {
	t := &Transport{
		subject: DefaultSubject,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// New creates a transport over an existing NATS connection. The caller
// keeps ownership of the connection.
func New(conn *nats.Conn, opts ...Option) (*Transport, error) {
	if conn == nil {
		return nil, ErrNilConn
	}
	t := newTransport(opts)
	t.conn = conn
	return t, nil
}

// FromURL creates a transport with its own connection dialed from a NATS
// URL (nats://host:port). The dial happens eagerly with a single attempt;
// use FromConfig for a retry budget. The transport owns the connection;
// Shutdown closes it.
func FromURL(url string, opts ...Option) (*Transport, error) {
	return FromConfig(context.Background(), Config{
		ConnectionURL: url,
		RetryAttempts: 1,
	}, opts...)
}

// FromConfig connects per the config (with connection verification) and
// creates a transport owning the connection.
func FromConfig(ctx context.Context, cfg Config, opts ...Option) (*Transport, error) {
	if cfg.Subject != "" {
		opts = append([]Option{WithSubject(cfg.Subject)}, opts...)
	}
	t := newTransport(opts)

	conn, err := Connect(ctx, cfg, LogHandlers(t.log)...)
	if err != nil {
		return nil, err
	}
	t.conn = conn
	t.ownsConn = true
	return t, nil
}

// Subscribe opens a synchronous subscription and flushes it to the server,
// so a returned nil means the subject is actually live.
func (t *Transport) Subscribe(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sub != nil {
		return nil
	}

	sub, err := t.conn.SubscribeSync(t.subject)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %q: %w", t.subject, err)
	}
	if err := t.conn.FlushWithContext(ctx); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("failed to subscribe to subject %q: %w", t.subject, err)
	}

	t.sub = sub
	return nil
}

// Receive waits up to timeout for one notification. An elapsed window
// returns (nil, nil).
func (t *Transport) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	sub := t.sub
	t.mu.Unlock()
	if sub == nil {
		return nil, ErrNotSubscribed
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := sub.NextMsgWithContext(pollCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
			return nil, nil
		}
		return nil, err
	}
	return msg.Data, nil
}

// Publish pushes one notification onto the subject and flushes it, so a
// returned nil means the server took the message.
func (t *Transport) Publish(ctx context.Context, data []byte) error {
	if err := t.conn.Publish(t.subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %q: %w", t.subject, err)
	}
	if err := t.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to publish to subject %q: %w", t.subject, err)
	}
	return nil
}

// Close releases the subscription. The connection stays usable, so a
// closed transport can subscribe again.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sub == nil {
		return nil
	}
	err := t.sub.Unsubscribe()
	t.sub = nil
	if err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
		return err
	}
	return nil
}

// Shutdown closes the subscription and, when the transport owns its
// connection (FromURL, FromConfig), the connection as well.
func (t *Transport) Shutdown() error {
	err := t.Close()
	if t.ownsConn {
		t.conn.Close()
	}
	return err
}

// Transient classifies connection-level failures as retryable. Errors on
// a deliberately closed connection or a dead subscription are final.
func (t *Transport) Transient(err error) bool {
	if err == nil ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrBadSubscription) ||
		errors.Is(err, nats.ErrInvalidConnection) {
		return false
	}
	if errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrReconnectBufExceeded) {
		return true
	}
	return retry.IsConnectionError(err)
}
