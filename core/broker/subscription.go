package broker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/relay/core/event"
)

// EventHandlerFunc receives the full event, metadata included. It is the
// delivery signature used by catch-all subscriptions.
type EventHandlerFunc func(ctx context.Context, evt event.Event) error

// Subscription is the token returned by Subscribe and SubscribeAll. It
// identifies one registered handler and can cancel it at any time.
type Subscription struct {
	id      string
	names   map[string]struct{} // nil matches every event
	deliver EventHandlerFunc
	once    bool
	claimed atomic.Bool
	owner   *Local
	cancel  sync.Once
}

// ID returns the unique identifier of the subscription.
func (s *Subscription) ID() string {
	return s.id
}

// EventNames returns the event names this subscription matches.
// Nil means the subscription matches every event.
func (s *Subscription) EventNames() []string {
	if s.names == nil {
		return nil
	}
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	return names
}

// Once reports whether the subscription is removed after its first delivery.
func (s *Subscription) Once() bool {
	return s.once
}

// Unsubscribe removes the subscription from its broker. Safe to call
// multiple times and after the broker has stopped. In-flight deliveries
// are not interrupted.
func (s *Subscription) Unsubscribe() {
	s.cancel.Do(func() {
		s.owner.remove(s.id)
	})
}

func (s *Subscription) matches(name string) bool {
	if s.names == nil {
		return true
	}
	_, ok := s.names[name]
	return ok
}

// claim reserves a one-shot subscription for delivery. Only the first
// caller wins; concurrent publishers that match the same one-shot
// subscription deliver at most once between them.
func (s *Subscription) claim() bool {
	return !s.once || s.claimed.CompareAndSwap(false, true)
}

type subscribeOptions struct {
	names []string
	once  bool
}

// SubscribeOption configures a subscription at registration time.
type SubscribeOption func(*subscribeOptions)

// WithOnce makes the subscription one-shot: it receives at most one event
// and is automatically unsubscribed after the delivery is dispatched.
func WithOnce() SubscribeOption {
	return func(o *subscribeOptions) {
		o.once = true
	}
}

// WithEventNames overrides the event names the subscription matches,
// replacing the handler's own event name. Use it to attach one handler to
// several event types.
func WithEventNames(names ...string) SubscribeOption {
	return func(o *subscribeOptions) {
		o.names = names
	}
}
