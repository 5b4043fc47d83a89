package broker

import (
	"context"

	"github.com/dmitrymomot/relay/core/event"
)

// Broker is the surface shared by the in-process broker and the transport
// bridge. Application code that only publishes and subscribes should
// depend on this interface so it can run against a bare Local in tests
// and a Bridge in production.
type Broker interface {
	// Publish delivers the event to matching subscriptions.
	Publish(ctx context.Context, evt event.Event) error

	// Subscribe registers a handler for the event name it reports.
	Subscribe(h Handler, opts ...SubscribeOption) (*Subscription, error)

	// SubscribeAll registers a callback for every event.
	SubscribeAll(fn EventHandlerFunc, opts ...SubscribeOption) (*Subscription, error)

	// Start makes the broker operational.
	Start(ctx context.Context) error

	// Stop shuts the broker down cooperatively.
	Stop() error

	// Healthcheck reports nil while the broker is operational.
	Healthcheck(ctx context.Context) error
}

var (
	_ Broker = (*Local)(nil)
	_ Broker = (*Bridge)(nil)
)
