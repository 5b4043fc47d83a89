package broker

import (
	"context"
	"time"
)

// Transport is the minimal shared-carrier surface a Bridge needs: one
// subscription for inbound notifications and a publish primitive for
// outbound ones. Implementations live in the integration/broker packages
// (Redis Pub/Sub, NATS, Postgres LISTEN/NOTIFY, Kafka).
//
// A transport instance belongs to exactly one Bridge. The Bridge serializes
// Subscribe/Receive/Close calls on the listener goroutine; Publish may be
// called concurrently from any goroutine and must work independently of the
// subscription state.
type Transport interface {
	// Subscribe establishes the inbound subscription. Called once per
	// Bridge start; must be callable again after Close so a stopped
	// bridge can be restarted.
	Subscribe(ctx context.Context) error

	// Receive waits up to timeout for one notification. A (nil, nil)
	// return means the window elapsed without a message; the bridge uses
	// this to bound how long the stop flag goes unchecked. Transports
	// whose backend does not resubscribe automatically after a dropped
	// carrier must restore the subscription on a subsequent Receive call,
	// so the bridge's retry policy doubles as the reconnect loop.
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)

	// Publish pushes one notification to the carrier. It returns once the
	// carrier has accepted the payload.
	Publish(ctx context.Context, data []byte) error

	// Close releases the subscription and any listener-side resources.
	// Must be idempotent. It does not invalidate Publish.
	Close() error
}

// TransientClassifier is implemented by transports that can tell their
// retryable connectivity failures apart from fatal ones. A bridge whose
// retry policy has no classifier of its own adopts the transport's;
// otherwise retry.IsConnectionError is used.
type TransientClassifier interface {
	Transient(err error) bool
}
