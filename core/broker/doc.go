// Package broker provides a resilient event broker with a process-local
// fan-out core and an optional bridge that relays events over a shared
// transport (Redis, NATS, Postgres, Kafka) so every connected process
// observes every event exactly once.
//
// # Core Components
//
// Local is the in-process broker: events published to it fan out to every
// matching subscription on dedicated goroutines with panic recovery. It is
// fully usable on its own for single-process deployments.
//
// Bridge wraps a Local broker and a Transport. Publishing through a bridge
// delivers to local subscribers first, then relays the origin-stamped
// event over the transport. A listener goroutine receives remote
// notifications, filters out the bridge's own echoes and forwards foreign
// events into the local broker, so subscribers never see duplicates and
// never miss remote events.
//
// Transport abstracts the wire: Subscribe, bounded Receive, Publish and
// Close. Implementations live under integration/broker and classify their
// own transient errors through the optional TransientClassifier interface.
//
// Handler processes events through a type-safe interface. Handlers are
// created from functions with automatic type inference using
// NewHandlerFunc, or with explicit event names using NewHandler.
//
// Codec frames wire notifications with the publishing instance ID so a
// bridge can recognize and drop its own echoes.
//
// # Basic Usage
//
// Create an event type, subscribe a handler and publish:
//
//	import (
//		"context"
//		"log/slog"
//		"os"
//
//		"github.com/dmitrymomot/relay/core/broker"
//		"github.com/dmitrymomot/relay/core/event"
//	)
//
//	type UserCreated struct {
//		UserID string
//		Email  string
//	}
//
//	func main() {
//		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//
//		bus := broker.NewLocal(broker.WithLocalLogger(logger))
//
//		handler := broker.NewHandlerFunc(func(ctx context.Context, evt UserCreated) error {
//			logger.Info("user created", "user_id", evt.UserID, "email", evt.Email)
//			return nil
//		})
//
//		sub, err := bus.Subscribe(handler)
//		if err != nil {
//			logger.Error("subscribe failed", "error", err)
//			return
//		}
//		defer sub.Unsubscribe()
//
//		ctx := context.Background()
//		bus.Publish(ctx, event.NewEvent(UserCreated{UserID: "123", Email: "user@example.com"}))
//	}
//
// # Bridging Processes
//
// Connect multiple processes through a shared transport. Each process runs
// its own bridge; events published in one process are observed in all of
// them:
//
//	transport, err := redisbroker.New(client)
//	if err != nil {
//		return err
//	}
//
//	bridge, err := broker.NewBridge(transport,
//		broker.WithLogger(logger),
//		broker.WithRetryPolicy(retry.Policy{
//			MaxElapsedTime: 30 * time.Second,
//			Jitter:         true,
//		}),
//	)
//	if err != nil {
//		return err
//	}
//
//	bridge.Subscribe(handler)
//
//	if err := bridge.Start(ctx); err != nil {
//		return err
//	}
//	defer bridge.Stop()
//
//	// Delivered locally and relayed to every other process.
//	bridge.Publish(ctx, event.NewEvent(UserCreated{UserID: "123"}))
//
// The bridge stamps every outgoing notification with its instance ID and
// drops incoming notifications carrying its own ID, so the publishing
// process delivers each event to its local subscribers exactly once even
// though the transport echoes the notification back.
//
// # Retry and Failure Semantics
//
// Both the publish path and the receive loop run transport operations
// under a retry.Policy. Transient failures (connection resets, timeouts,
// refused connections) are retried with exponential backoff and each
// failed attempt is logged. Non-transient failures are never retried:
// a publish returns the error to the caller, and a receive failure is
// fatal to the listener. A crashed listener closes the transport
// subscription, surfaces its error through Err, Done, Run and
// Healthcheck, and the bridge does not restart itself; supervision is the
// caller's job:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(bridge.Run(ctx))
//	if err := g.Wait(); err != nil {
//		logger.Error("bridge terminated", "error", err)
//	}
//
// # Subscriptions
//
// Subscribe matches by the handler's event name; SubscribeAll receives
// everything. Options narrow or change the matched set:
//
//	// Explicit names instead of the handler's own.
//	bus.Subscribe(handler, broker.WithEventNames("user.created", "user.imported"))
//
//	// Deliver at most once, then remove the subscription.
//	bus.SubscribeAll(callback, broker.WithOnce())
//
// Unsubscribe removes a subscription at any time and is safe to call
// multiple times. Deliveries already in flight complete.
//
// # Decorators and Middleware
//
// Wrap individual handlers with decorators, or install middleware on the
// broker to wrap every handler registered through Subscribe:
//
//	handler := broker.Decorate(
//		broker.NewHandlerFunc(notifyWebhookHandler),
//		broker.Retry(retry.Policy{MaxAttempts: 3}),
//		broker.Timeout(30*time.Second),
//	)
//
//	bus := broker.NewLocal(
//		broker.WithLocalMiddleware(broker.LoggingMiddleware(logger)),
//	)
//
// # Observability
//
// Stats exposes counters for published, received, forwarded and dropped
// events; Healthcheck integrates with health endpoints:
//
//	stats := bridge.Stats()
//	logger.Info("bridge stats",
//		"published", stats.Published,
//		"forwarded", stats.Forwarded,
//		"dropped_self", stats.DroppedSelf,
//	)
//
//	if err := bridge.Healthcheck(ctx); err != nil {
//		// Not running, or the listener crashed.
//	}
//
// # Error Handling
//
// The package defines sentinel errors for state violations:
//
//	all, err := bus.Subscribe(nil)
//	if errors.Is(err, broker.ErrNilHandler) {
//		// handler must not be nil
//	}
//
//	err = bridge.Start(ctx)
//	if errors.Is(err, broker.ErrBrokerAlreadyRunning) {
//		// Start was called twice
//	}
//
// Handler errors never propagate to publishers: they are logged, counted
// in Stats and otherwise contained, matching the fire-and-forget nature
// of event fan-out.
package broker
