package pg

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/relay/core/broker"
	"github.com/dmitrymomot/relay/core/retry"
)

// DefaultChannel is the LISTEN/NOTIFY channel used when none is configured.
const DefaultChannel = "relay_events"

// maxNotifyPayload is the largest payload pg_notify accepts. Notifications
// are base64-wrapped on the wire (NOTIFY payloads must be valid text), so
// the limit applies to the encoded form.
const maxNotifyPayload = 7999

// Transport carries broker notifications over PostgreSQL LISTEN/NOTIFY.
// Listening holds one dedicated pooled connection; when that connection
// dies the failure surfaces as a retryable error and the next receive
// attempt acquires a fresh connection and re-issues LISTEN.
type Transport struct {
	pool     *pgxpool.Pool
	channel  string
	ownsPool bool

	mu         sync.Mutex
	subscribed bool
	conn       *pgxpool.Conn
}

var (
	_ broker.Transport           = (*Transport)(nil)
	_ broker.TransientClassifier = (*Transport)(nil)
)

// Option configures a Transport.
type Option func(*Transport)

// WithChannel overrides the notification channel.
func WithChannel(channel string) Option {
	return func(t *Transport) {
		if channel != "" {
			t.channel = channel
		}
	}
}

// New creates a transport over an existing connection pool. The caller
// keeps ownership of the pool.
func New(pool *pgxpool.Pool, opts ...Option) (*Transport, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	t := &Transport{
		pool:    pool,
		channel: DefaultChannel,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// FromURL creates a transport with its own pool built from a PostgreSQL
// connection string (with connection verification). The transport owns the
// pool; Shutdown closes it.
func FromURL(ctx context.Context, url string, opts ...Option) (*Transport, error) {
	return FromConfig(ctx, Config{ConnectionString: url}, opts...)
}

// FromConfig connects per the config (with connection verification) and
// creates a transport owning the pool.
func FromConfig(ctx context.Context, cfg Config, opts ...Option) (*Transport, error) {
	pool, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Channel != "" {
		opts = append([]Option{WithChannel(cfg.Channel)}, opts...)
	}
	t, err := New(pool, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	t.ownsPool = true
	return t, nil
}

// Subscribe acquires a dedicated connection and issues LISTEN on it, so a
// returned nil means the channel is actually live.
func (t *Transport) Subscribe(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.subscribed {
		return nil
	}

	conn, err := t.acquireListenConn(ctx)
	if err != nil {
		return err
	}
	t.conn = conn
	t.subscribed = true
	return nil
}

func (t *Transport) acquireListenConn(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to channel %q: %w", t.channel, err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{t.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to subscribe to channel %q: %w", t.channel, err)
	}
	return conn, nil
}

// listenConn returns the dedicated listen connection, acquiring a fresh
// one (and re-issuing LISTEN) after a previous one was dropped.
func (t *Transport) listenConn(ctx context.Context) (*pgxpool.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.subscribed {
		return nil, ErrNotSubscribed
	}
	if t.conn != nil {
		return t.conn, nil
	}
	conn, err := t.acquireListenConn(ctx)
	if err != nil {
		return nil, err
	}
	t.conn = conn
	return conn, nil
}

// dropListenConn discards a listen connection that returned an error. The
// pool destroys broken connections on release.
func (t *Transport) dropListenConn(conn *pgxpool.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == conn && t.conn != nil {
		t.conn.Release()
		t.conn = nil
	}
}

// Receive waits up to timeout for one notification. An elapsed window
// returns (nil, nil); the listen connection survives it.
func (t *Transport) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	conn, err := t.listenConn(ctx)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	n, err := conn.Conn().WaitForNotification(pollCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		t.dropListenConn(conn)
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(n.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode notification payload: %w", err)
	}
	return data, nil
}

// Publish pushes one notification onto the channel via pg_notify.
func (t *Transport) Publish(ctx context.Context, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	if len(encoded) > maxNotifyPayload {
		return fmt.Errorf("%w: %d bytes encoded, limit is %d", ErrPayloadTooLarge, len(encoded), maxNotifyPayload)
	}
	if _, err := t.pool.Exec(ctx, "SELECT pg_notify($1, $2)", t.channel, encoded); err != nil {
		return fmt.Errorf("failed to publish to channel %q: %w", t.channel, err)
	}
	return nil
}

// Close releases the listen connection back to the pool. The pool stays
// usable, so a closed transport can subscribe again.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		t.conn.Release()
		t.conn = nil
	}
	t.subscribed = false
	return nil
}

// Shutdown releases the listen connection and, when the transport owns its
// pool (FromURL, FromConfig), closes the pool as well.
func (t *Transport) Shutdown() error {
	err := t.Close()
	if t.ownsPool {
		t.pool.Close()
	}
	return err
}

// Transient classifies connection-level failures as retryable. Oversized
// payloads and SQL-level errors are final.
func (t *Transport) Transient(err error) bool {
	if err == nil ||
		errors.Is(err, ErrPayloadTooLarge) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 covers connection exceptions, 57P covers server
		// shutdown and restart.
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P")
	}
	return retry.IsConnectionError(err)
}
