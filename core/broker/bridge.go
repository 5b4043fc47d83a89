package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/relay/core/event"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/retry"
)

const (
	defaultStopCheckInterval = time.Second
	defaultShutdownTimeout   = 30 * time.Second
)

// Bridge connects a Local broker to a shared transport so events published
// in one process are observed in every connected process. Publishing
// delivers to local subscribers first, then relays the encoded event over
// the transport under the retry policy. A single listener goroutine
// receives remote notifications, drops the bridge's own echoes by origin
// ID and forwards the rest to the local broker.
//
// Transient transport failures are retried with backoff. A non-transient
// failure is fatal to the listener: the subscription is closed, the error
// is surfaced through Err, Run and Healthcheck, and the bridge does not
// restart itself.
type Bridge struct {
	transport  Transport
	local      *Local
	ownsLocal  bool
	serializer event.Serializer
	codec      *Codec
	policy     retry.Policy
	instanceID uuid.UUID

	stopCheckInterval time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	stopped atomic.Bool

	published        atomic.Int64
	received         atomic.Int64
	forwarded        atomic.Int64
	droppedSelf      atomic.Int64
	droppedMalformed atomic.Int64
	lastActivityAt   atomic.Int64
}

// BridgeStats provides observability metrics for a Bridge.
type BridgeStats struct {
	InstanceID       string
	IsRunning        bool
	Published        int64 // events relayed to the transport
	Received         int64 // raw notifications received from the transport
	Forwarded        int64 // remote events delivered to the local broker
	DroppedSelf      int64 // own echoes filtered out by origin
	DroppedMalformed int64 // notifications that failed to decode
	LastActivityAt   time.Time
}

// NewBridge creates a bridge over the given transport. Without options it
// gets a fresh instance ID, an owned Local broker, the JSON serializer, a
// zero-value retry policy (exponential backoff, one minute budget) and the
// transport's own transient classifier when it provides one.
func NewBridge(transport Transport, opts ...Option) (*Bridge, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	b := &Bridge{
		transport:         transport,
		instanceID:        uuid.New(),
		stopCheckInterval: defaultStopCheckInterval,
		shutdownTimeout:   defaultShutdownTimeout,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.local == nil {
		b.local = NewLocal(WithLocalLogger(b.logger))
		b.ownsLocal = true
	}
	b.codec = NewCodec(b.instanceID, b.serializer)

	if b.policy.Transient == nil {
		if tc, ok := transport.(TransientClassifier); ok {
			b.policy.Transient = tc.Transient
		} else {
			b.policy.Transient = retry.IsConnectionError
		}
	}

	// Every retried attempt is reported, mirroring the transport outage in
	// the logs while the backoff rides it out.
	log, user := b.logger, b.policy.OnRetry
	b.policy.OnRetry = func(attempt int, err error) {
		log.Warn("transport connection failure",
			logger.RetryCount(attempt),
			logger.Error(err))
		if user != nil {
			user(attempt, err)
		}
	}

	return b, nil
}

// Start subscribes to the transport and launches the listener goroutine.
// A failed subscription tears the transport back down and is returned to
// the caller; the listener is only started once the subscription holds.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrBrokerAlreadyRunning
	}

	if err := b.transport.Subscribe(ctx); err != nil {
		if cerr := b.transport.Close(); cerr != nil {
			b.logger.Warn("failed to close transport after subscribe failure", logger.Error(cerr))
		}
		b.logger.Error("failed to subscribe to transport", logger.Error(err))
		return fmt.Errorf("failed to subscribe to transport: %w", err)
	}

	if b.ownsLocal {
		_ = b.local.Start(ctx)
	}

	lctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.err = nil
	b.stopped.Store(false)
	b.running = true

	go func() {
		defer cancel()
		b.listen(lctx)
	}()

	b.logger.Info("broker bridge started",
		logger.Origin(b.instanceID.String()),
		logger.Duration(b.stopCheckInterval))
	return nil
}

// Stop shuts the listener down cooperatively: it raises the stop flag,
// which the listener observes within one stop-check interval, and waits
// for full termination. If the listener does not exit within the shutdown
// timeout (for example it is mid-backoff in a long retry), its context is
// cancelled and an error is returned. Stop before Start is a no-op.
func (b *Bridge) Stop() error {
	return b.stop(false)
}

// ForceStop cancels the listener context so an in-flight receive or
// backoff wait aborts immediately, then waits for termination.
func (b *Bridge) ForceStop() error {
	return b.stop(true)
}

func (b *Bridge) stop(force bool) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.stopped.Store(true)
	cancel, done := b.cancel, b.done
	if force {
		cancel()
	}
	b.mu.Unlock()

	var stopErr error
	select {
	case <-done:
	case <-time.After(b.shutdownTimeout):
		b.logger.Warn("listener did not stop within shutdown timeout, cancelling",
			logger.Duration(b.shutdownTimeout))
		cancel()
		<-done
		stopErr = fmt.Errorf("shutdown timeout exceeded after %s", b.shutdownTimeout)
	}

	b.mu.Lock()
	b.running = false
	b.cancel = nil
	cancel()
	b.mu.Unlock()

	if b.ownsLocal {
		if err := b.local.Stop(); err != nil && stopErr == nil {
			stopErr = err
		}
	}

	b.logger.Info("broker bridge stopped", logger.Origin(b.instanceID.String()))
	return stopErr
}

// listen is the single receive loop. It polls the transport with the
// stop-check interval as the timeout so the stop flag is honored promptly,
// retries transient receive failures under the policy and forwards decoded
// remote events to the local broker. Any error that escapes the retry
// policy terminates the listener for good.
func (b *Bridge) listen(ctx context.Context) {
	var fatal error
	defer func() {
		if r := recover(); r != nil {
			fatal = fmt.Errorf("listener panic: %v", r)
		}
		// Cancellation is an intended stop, not a transport failure.
		if fatal != nil && errors.Is(fatal, context.Canceled) {
			fatal = nil
		}
		if fatal != nil {
			b.logger.Error("listener crashed",
				logger.Origin(b.instanceID.String()),
				logger.Error(fatal))
		}
		if err := b.transport.Close(); err != nil {
			b.logger.Warn("failed to close transport subscription", logger.Error(err))
		}

		// The listener is the broker's liveness: once it exits, for any
		// reason, the bridge is no longer running.
		b.mu.Lock()
		b.err = fatal
		b.running = false
		done := b.done
		b.mu.Unlock()
		close(done)
	}()

	for !b.stopped.Load() {
		data, err := retry.DoValue(ctx, b.policy, func(ctx context.Context) ([]byte, error) {
			return b.transport.Receive(ctx, b.stopCheckInterval)
		})
		if err != nil {
			fatal = err
			return
		}
		if data == nil {
			// Poll window elapsed without a message; loop around to
			// re-check the stop flag.
			continue
		}

		b.received.Add(1)
		b.lastActivityAt.Store(time.Now().Unix())

		evt, err := b.codec.Decode(data)
		if err != nil {
			b.droppedMalformed.Add(1)
			b.logger.Error("dropping malformed notification", logger.Error(err))
			continue
		}
		if evt == nil {
			b.droppedSelf.Add(1)
			continue
		}

		if err := b.local.Publish(ctx, *evt); err != nil {
			fatal = fmt.Errorf("failed to forward event to local broker: %w", err)
			return
		}
		b.forwarded.Add(1)
		b.logger.Debug("event forwarded from transport",
			logger.Event(evt.Name),
			logger.EventID(evt.ID))
	}
}

// Publish delivers the event to local subscribers, then relays it over the
// transport under the retry policy. The relay never re-delivers locally:
// the echo coming back from the transport is recognized by origin and
// dropped, so local subscribers observe each event exactly once.
func (b *Bridge) Publish(ctx context.Context, evt event.Event) error {
	if err := b.local.Publish(ctx, evt); err != nil {
		return err
	}

	data, err := b.codec.Encode(evt)
	if err != nil {
		return err
	}

	if err := b.policy.Do(ctx, func(ctx context.Context) error {
		return b.transport.Publish(ctx, data)
	}); err != nil {
		b.logger.Error("failed to publish event to transport",
			logger.Event(evt.Name),
			logger.EventID(evt.ID),
			logger.Error(err))
		return fmt.Errorf("failed to publish event to transport: %w", err)
	}

	b.published.Add(1)
	b.logger.Debug("event relayed to transport",
		logger.Event(evt.Name),
		logger.EventID(evt.ID))
	return nil
}

// PublishLocal delivers the event to local subscribers only, without
// touching the transport.
func (b *Bridge) PublishLocal(ctx context.Context, evt event.Event) error {
	return b.local.Publish(ctx, evt)
}

// Subscribe registers a typed handler on the local broker. Remote events
// forwarded by the listener reach it the same way locally published ones do.
func (b *Bridge) Subscribe(h Handler, opts ...SubscribeOption) (*Subscription, error) {
	return b.local.Subscribe(h, opts...)
}

// SubscribeAll registers a catch-all callback on the local broker.
func (b *Bridge) SubscribeAll(fn EventHandlerFunc, opts ...SubscribeOption) (*Subscription, error) {
	return b.local.SubscribeAll(fn, opts...)
}

// Local returns the local broker the bridge fans events out to.
func (b *Bridge) Local() *Local {
	return b.local
}

// InstanceID returns the origin ID stamped onto outgoing notifications.
func (b *Bridge) InstanceID() string {
	return b.instanceID.String()
}

// Err returns the fatal listener error after the listener has terminated,
// or nil while it is healthy or was stopped deliberately.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Done returns a channel closed when the current listener terminates.
// It returns nil before the first Start.
func (b *Bridge) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// Run returns a function compatible with errgroup.Go. It starts the
// bridge, propagates a fatal listener error to the group and stops the
// bridge when the context is cancelled.
func (b *Bridge) Run(ctx context.Context) func() error {
	return func() error {
		if err := b.Start(ctx); err != nil {
			return err
		}

		b.mu.Lock()
		done := b.done
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			_ = b.Stop() // Ignore stop error in normal shutdown
			return nil
		case <-done:
			return b.Err()
		}
	}
}

// Stats returns current observability metrics.
func (b *Bridge) Stats() BridgeStats {
	b.mu.Lock()
	running := b.running
	b.mu.Unlock()

	var lastActivity time.Time
	if ts := b.lastActivityAt.Load(); ts > 0 {
		lastActivity = time.Unix(ts, 0)
	}

	return BridgeStats{
		InstanceID:       b.instanceID.String(),
		IsRunning:        running,
		Published:        b.published.Load(),
		Received:         b.received.Load(),
		Forwarded:        b.forwarded.Load(),
		DroppedSelf:      b.droppedSelf.Load(),
		DroppedMalformed: b.droppedMalformed.Load(),
		LastActivityAt:   lastActivity,
	}
}

// Healthcheck reports the bridge state: a crashed listener surfaces its
// fatal error, a bridge that was never started or already stopped reports
// not running.
func (b *Bridge) Healthcheck(ctx context.Context) error {
	b.mu.Lock()
	running, ferr := b.running, b.err
	b.mu.Unlock()

	if ferr != nil {
		return errors.Join(ErrHealthcheckFailed, ErrListenerCrashed, ferr)
	}
	if !running {
		return errors.Join(ErrHealthcheckFailed, ErrBrokerNotRunning)
	}
	return nil
}
