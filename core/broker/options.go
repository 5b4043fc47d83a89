package broker

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/relay/core/event"
	"github.com/dmitrymomot/relay/core/retry"
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the structured logger for the bridge and, unless a local
// broker is injected, for the owned local broker as well.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithLocalBus injects an existing local broker instead of the owned one.
// The caller keeps responsibility for its lifecycle: the bridge will not
// start or stop an injected broker.
func WithLocalBus(local *Local) Option {
	return func(b *Bridge) {
		if local != nil {
			b.local = local
			b.ownsLocal = false
		}
	}
}

// WithSerializer replaces the default JSON serializer for wire events.
func WithSerializer(s event.Serializer) Option {
	return func(b *Bridge) {
		if s != nil {
			b.serializer = s
		}
	}
}

// WithRetryPolicy sets the retry policy shared by the publish and receive
// paths. A policy without a Transient classifier adopts the transport's.
func WithRetryPolicy(p retry.Policy) Option {
	return func(b *Bridge) {
		b.policy = p
	}
}

// WithStopCheckInterval bounds how long a receive call may block, which is
// also the longest a cooperative Stop goes unnoticed by an idle listener.
func WithStopCheckInterval(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.stopCheckInterval = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for the listener before
// cancelling it.
func WithShutdownTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.shutdownTimeout = d
		}
	}
}

// WithInstanceID pins the origin ID instead of generating one. Useful for
// stable identities across restarts; instances sharing an ID will drop
// each other's events as self-echo.
func WithInstanceID(id uuid.UUID) Option {
	return func(b *Bridge) {
		if id != uuid.Nil {
			b.instanceID = id
		}
	}
}

// LocalOption configures a Local broker.
type LocalOption func(*Local)

// WithLocalLogger sets the structured logger for a local broker.
func WithLocalLogger(logger *slog.Logger) LocalOption {
	return func(l *Local) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLocalShutdownTimeout bounds how long Stop waits for in-flight
// deliveries to drain.
func WithLocalShutdownTimeout(d time.Duration) LocalOption {
	return func(l *Local) {
		if d > 0 {
			l.shutdownTimeout = d
		}
	}
}

// WithLocalMiddleware appends middleware applied to every handler passed
// to Subscribe. Middleware registered here does not affect SubscribeAll
// callbacks.
func WithLocalMiddleware(mw ...Middleware) LocalOption {
	return func(l *Local) {
		l.middleware = append(l.middleware, mw...)
	}
}
