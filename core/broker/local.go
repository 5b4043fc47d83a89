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
)

// Local is an in-process event broker: events published to it fan out to
// every matching subscription on short-lived goroutines. It is the
// process-local half of every transport bridge and is fully usable on its
// own in single-process deployments.
//
// Publish and Subscribe work immediately after NewLocal; Start and Stop
// only manage health reporting and the draining of in-flight deliveries.
type Local struct {
	logger          *slog.Logger
	shutdownTimeout time.Duration
	middleware      []Middleware

	mu      sync.RWMutex
	subs    map[string]*Subscription
	running bool

	wg             sync.WaitGroup
	published      atomic.Int64
	delivered      atomic.Int64
	failed         atomic.Int64
	active         atomic.Int64
	lastActivityAt atomic.Int64
}

// LocalStats provides observability metrics for a Local broker.
type LocalStats struct {
	Subscriptions    int
	Published        int64
	Delivered        int64
	Failed           int64
	ActiveDeliveries int64
	IsRunning        bool
	LastActivityAt   time.Time
}

// NewLocal creates an in-process broker. Without options it logs to a
// no-op handler and waits up to 30 seconds for in-flight deliveries on Stop.
func NewLocal(opts ...LocalOption) *Local {
	l := &Local{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdownTimeout: defaultShutdownTimeout,
		subs:            make(map[string]*Subscription),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Subscribe registers a handler for the event name it reports via
// EventName. WithEventNames overrides the matched names; WithOnce limits
// the subscription to a single delivery. Broker-level middleware wraps
// the handler at registration time.
func (l *Local) Subscribe(h Handler, opts ...SubscribeOption) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}

	var o subscribeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.names == nil {
		o.names = []string{h.EventName()}
	}

	h = chainMiddleware(h, l.middleware)

	names := make(map[string]struct{}, len(o.names))
	for _, name := range o.names {
		if name == "" {
			continue
		}
		names[name] = struct{}{}
	}
	if len(names) == 0 {
		return nil, ErrNoEventName
	}

	return l.add(func(ctx context.Context, evt event.Event) error {
		return h.Handle(ctx, evt.Payload)
	}, names, o.once), nil
}

// SubscribeAll registers a callback for every event regardless of name.
// WithEventNames narrows it down to an explicit set of names.
func (l *Local) SubscribeAll(fn EventHandlerFunc, opts ...SubscribeOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}

	var o subscribeOptions
	for _, opt := range opts {
		opt(&o)
	}

	var names map[string]struct{}
	if o.names != nil {
		names = make(map[string]struct{}, len(o.names))
		for _, name := range o.names {
			if name == "" {
				continue
			}
			names[name] = struct{}{}
		}
		if len(names) == 0 {
			return nil, ErrNoEventName
		}
	}

	return l.add(fn, names, o.once), nil
}

func (l *Local) add(deliver EventHandlerFunc, names map[string]struct{}, once bool) *Subscription {
	sub := &Subscription{
		id:      uuid.New().String(),
		names:   names,
		deliver: deliver,
		once:    once,
		owner:   l,
	}

	l.mu.Lock()
	l.subs[sub.id] = sub
	l.mu.Unlock()

	l.logger.Debug("subscription added",
		logger.ID("subscription_id", sub.id),
		logger.Count("event_names", len(names)))
	return sub
}

func (l *Local) remove(id string) {
	l.mu.Lock()
	delete(l.subs, id)
	l.mu.Unlock()
}

// Publish fans the event out to every matching subscription. Each delivery
// runs on its own goroutine with panic recovery; handler failures are
// logged and counted, never returned to the publisher. The only error
// Publish reports is an already-cancelled context.
func (l *Local) Publish(ctx context.Context, evt event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.published.Add(1)
	l.lastActivityAt.Store(time.Now().Unix())

	l.mu.RLock()
	matched := make([]*Subscription, 0, len(l.subs))
	for _, sub := range l.subs {
		if sub.matches(evt.Name) {
			matched = append(matched, sub)
		}
	}
	l.mu.RUnlock()

	for _, sub := range matched {
		// One-shot subscriptions are claimed before dispatch so two
		// concurrent publishers cannot both deliver to the same one.
		if !sub.claim() {
			continue
		}

		l.wg.Add(1)
		l.active.Add(1)
		go l.dispatch(ctx, sub, evt)

		if sub.once {
			sub.Unsubscribe()
		}
	}
	return nil
}

func (l *Local) dispatch(ctx context.Context, sub *Subscription, evt event.Event) {
	defer l.wg.Done()
	defer l.active.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			l.failed.Add(1)
			l.logger.Error("event handler panicked",
				logger.Event(evt.Name),
				logger.EventID(evt.ID),
				logger.Key("panic", r))
		}
	}()

	// Deliveries outlive the publisher's call, so they detach from its
	// cancellation while keeping context values.
	dctx := event.WithEventMeta(context.WithoutCancel(ctx), evt)

	if err := sub.deliver(dctx, evt); err != nil {
		l.failed.Add(1)
		l.logger.Error("event handler failed",
			logger.Event(evt.Name),
			logger.EventID(evt.ID),
			logger.ID("subscription_id", sub.id),
			logger.Error(err))
		return
	}
	l.delivered.Add(1)
}

// Start marks the broker running. Publish and Subscribe work without it;
// starting only switches Healthcheck to healthy and pairs with Stop in
// supervision trees.
func (l *Local) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrBrokerAlreadyRunning
	}
	l.running = true
	l.logger.Info("local broker started")
	return nil
}

// Stop waits for in-flight deliveries to finish, bounded by the shutdown
// timeout. Calling Stop before Start (or twice) is a no-op.
func (l *Local) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	l.mu.Unlock()

	l.logger.Info("local broker stopping, waiting for active deliveries to complete",
		logger.Duration(l.shutdownTimeout))

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("local broker stopped cleanly")
		return nil
	case <-time.After(l.shutdownTimeout):
		l.logger.Warn("local broker shutdown timeout exceeded - some deliveries may be abandoned",
			logger.Duration(l.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", l.shutdownTimeout)
	}
}

// Run returns a function compatible with errgroup.Go that starts the
// broker and stops it when the context is cancelled.
func (l *Local) Run(ctx context.Context) func() error {
	return func() error {
		if err := l.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return l.Stop()
	}
}

// Stats returns current observability metrics.
func (l *Local) Stats() LocalStats {
	l.mu.RLock()
	running := l.running
	subs := len(l.subs)
	l.mu.RUnlock()

	var lastActivity time.Time
	if ts := l.lastActivityAt.Load(); ts > 0 {
		lastActivity = time.Unix(ts, 0)
	}

	return LocalStats{
		Subscriptions:    subs,
		Published:        l.published.Load(),
		Delivered:        l.delivered.Load(),
		Failed:           l.failed.Load(),
		ActiveDeliveries: l.active.Load(),
		IsRunning:        running,
		LastActivityAt:   lastActivity,
	}
}

// Healthcheck reports whether the broker has been started.
func (l *Local) Healthcheck(ctx context.Context) error {
	if !l.Stats().IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrBrokerNotRunning)
	}
	return nil
}
