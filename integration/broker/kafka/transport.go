package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/dmitrymomot/relay/core/broker"
	"github.com/dmitrymomot/relay/core/retry"
)

// DefaultTopic is the Kafka topic used when none is configured.
const DefaultTopic = "relay.events"

// Transport carries broker notifications over a Kafka topic. Each
// transport consumes with its own consumer group starting at the last
// offset, so every bridge instance observes every notification
// (broadcast semantics over a partitioned log) from the moment it joins.
type Transport struct {
	cfg     Config
	groupID string
	writer  *kafka.Writer

	mu     sync.Mutex
	reader *kafka.Reader
}

var (
	_ broker.Transport           = (*Transport)(nil)
	_ broker.TransientClassifier = (*Transport)(nil)
)

// Option configures a Transport.
type Option func(*Transport)

// WithTopic overrides the topic notifications travel on.
func WithTopic(topic string) Option {
	return func(t *Transport) {
		if topic != "" {
			t.cfg.Topic = topic
		}
	}
}

// WithGroupID pins the consumer group instead of the generated
// per-transport group. A pinned group resumes its committed offsets
// across restarts; sharing one group between instances splits the
// stream between them instead of broadcasting it.
func WithGroupID(groupID string) Option {
	return func(t *Transport) {
		if groupID != "" {
			t.groupID = groupID
		}
	}
}

// New creates a transport over the given broker addresses without
// touching the network. The writer is built eagerly; the consumer group
// reader is created by Subscribe.
func New(brokers []string, opts ...Option) (*Transport, error) {
	return newTransport(Config{
		Brokers:        brokers,
		AllowAutoTopic: true,
	}, opts)
}

// FromConfig creates a transport from the config and probes the brokers
// within the config's retry budget, so a returned nil means a broker is
// reachable.
func FromConfig(ctx context.Context, cfg Config, opts ...Option) (*Transport, error) {
	t, err := newTransport(cfg, opts)
	if err != nil {
		return nil, err
	}

	policy := retry.Policy{
		MaxAttempts:     t.cfg.RetryAttempts,
		InitialInterval: t.cfg.RetryInterval,
	}
	if err := policy.Do(ctx, func(ctx context.Context) error {
		return probeBrokers(ctx, t.cfg.Brokers)
	}); err != nil {
		_ = t.writer.Close()
		return nil, errors.Join(ErrKafkaNotReady, err)
	}
	return t, nil
}

func newTransport(cfg Config, opts []Option) (*Transport, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}

	t := &Transport{
		cfg:     cfg.withDefaults(),
		groupID: cfg.GroupID,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.groupID == "" {
		t.groupID = "relay-" + uuid.New().String()
	}

	t.writer = &kafka.Writer{
		Addr:                   kafka.TCP(t.cfg.Brokers...),
		Topic:                  t.cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           t.cfg.BatchTimeout,
		WriteTimeout:           t.cfg.WriteTimeout,
		AllowAutoTopicCreation: t.cfg.AllowAutoTopic,
	}
	return t, nil
}

// GroupID reports the consumer group this transport consumes with. Useful
// for logging which group an instance joined and for pinning it later.
func (t *Transport) GroupID() string {
	return t.groupID
}

// Subscribe probes the brokers and creates the consumer group reader, so
// a returned nil means a broker is actually reachable. The group join
// itself happens on the first receive.
func (t *Transport) Subscribe(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reader != nil {
		return nil
	}

	if err := probeBrokers(ctx, t.cfg.Brokers); err != nil {
		return fmt.Errorf("failed to subscribe to topic %q: %w", t.cfg.Topic, err)
	}

	t.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     t.cfg.Brokers,
		Topic:       t.cfg.Topic,
		GroupID:     t.groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    t.cfg.MinBytes,
		MaxBytes:    t.cfg.MaxBytes,
		MaxWait:     t.cfg.MaxWait,
	})
	return nil
}

// Receive waits up to timeout for one notification. An elapsed window
// returns (nil, nil); group membership survives it.
func (t *Transport) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	reader := t.reader
	t.mu.Unlock()
	if reader == nil {
		return nil, ErrNotSubscribed
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := reader.ReadMessage(pollCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, err
	}
	return msg.Value, nil
}

// Publish pushes one notification onto the topic and waits for all
// replicas to acknowledge it.
func (t *Transport) Publish(ctx context.Context, data []byte) error {
	if err := t.writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
		return fmt.Errorf("failed to publish to topic %q: %w", t.cfg.Topic, err)
	}
	return nil
}

// Close leaves the consumer group and releases the reader. The writer
// stays usable, so a closed transport can subscribe again.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reader == nil {
		return nil
	}
	err := t.reader.Close()
	t.reader = nil
	return err
}

// Shutdown releases the reader and the writer.
func (t *Transport) Shutdown() error {
	err := t.Close()
	if werr := t.writer.Close(); err == nil {
		err = werr
	}
	return err
}

// Transient classifies failures as retryable using the protocol's own
// error taxonomy (leader elections, rebalances, coordinator moves) plus
// plain connection failures.
func (t *Transport) Transient(err error) bool {
	if err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	return retry.IsConnectionError(err)
}
