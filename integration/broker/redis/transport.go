package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/relay/core/broker"
	"github.com/dmitrymomot/relay/core/retry"
)

// DefaultChannel is the Redis Pub/Sub channel used when none is configured.
const DefaultChannel = "relay:events"

// Transport carries broker notifications over a Redis Pub/Sub channel.
// go-redis re-subscribes its PubSub automatically after a dropped
// connection, so transient receive errors can simply be retried.
type Transport struct {
	client     goredis.UniversalClient
	channel    string
	ownsClient bool

	mu     sync.Mutex
	pubsub *goredis.PubSub
}

var (
	_ broker.Transport           = (*Transport)(nil)
	_ broker.TransientClassifier = (*Transport)(nil)
)

// Option configures a Transport.
type Option func(*Transport)

// WithChannel overrides the Pub/Sub channel notifications travel on.
func WithChannel(channel string) Option {
	return func(t *Transport) {
		if channel != "" {
			t.channel = channel
		}
	}
}

// New creates a transport over an existing Redis client. Plain and cluster
// clients both work; the caller keeps ownership of the client.
func New(client goredis.UniversalClient, opts ...Option) (*Transport, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	t := &Transport{
		client:  client,
		channel: DefaultChannel,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// FromURL creates a transport with its own client parsed from a Redis URL
// (redis:// or rediss://). The transport owns the client; Shutdown closes it.
func FromURL(url string, opts ...Option) (*Transport, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	o, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToParseRedisConnString, err)
	}

	t, err := New(goredis.NewClient(o), opts...)
	if err != nil {
		return nil, err
	}
	t.ownsClient = true
	return t, nil
}

// FromConfig connects per the config (with connection verification) and
// creates a transport owning the client.
func FromConfig(ctx context.Context, cfg Config, opts ...Option) (*Transport, error) {
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Channel != "" {
		opts = append([]Option{WithChannel(cfg.Channel)}, opts...)
	}
	t, err := New(client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	t.ownsClient = true
	return t, nil
}

// Subscribe opens the Pub/Sub subscription and waits for the server's
// confirmation, so a returned nil means the channel is actually live.
func (t *Transport) Subscribe(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pubsub != nil {
		return nil
	}

	pubsub := t.client.Subscribe(ctx, t.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to channel %q: %w", t.channel, err)
	}

	t.pubsub = pubsub
	return nil
}

// Receive waits up to timeout for one notification. Subscription
// confirmations and pongs are swallowed; an elapsed window returns
// (nil, nil).
func (t *Transport) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	pubsub := t.pubsub
	t.mu.Unlock()
	if pubsub == nil {
		return nil, ErrNotSubscribed
	}

	msg, err := pubsub.ReceiveTimeout(ctx, timeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, nil
		}
		return nil, err
	}

	switch m := msg.(type) {
	case *goredis.Message:
		return []byte(m.Payload), nil
	default:
		return nil, nil
	}
}

// Publish pushes one notification onto the channel.
func (t *Transport) Publish(ctx context.Context, data []byte) error {
	if err := t.client.Publish(ctx, t.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %q: %w", t.channel, err)
	}
	return nil
}

// Close releases the Pub/Sub subscription. The client stays usable, so a
// closed transport can subscribe again.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pubsub == nil {
		return nil
	}
	err := t.pubsub.Close()
	t.pubsub = nil
	return err
}

// Shutdown closes the subscription and, when the transport owns its
// client (FromURL, FromConfig), the client as well.
func (t *Transport) Shutdown() error {
	err := t.Close()
	if t.ownsClient {
		if cerr := t.client.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Transient classifies connection-level failures as retryable. Errors on
// a deliberately closed client are final.
func (t *Transport) Transient(err error) bool {
	if err == nil || errors.Is(err, goredis.ErrClosed) {
		return false
	}
	if errors.Is(err, goredis.ErrPoolTimeout) {
		return true
	}
	return retry.IsConnectionError(err)
}
