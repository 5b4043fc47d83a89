package broker

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/relay/core/logger"
)

// Middleware wraps a Handler to add additional functionality.
// Middleware registered on a broker applies to every handler it receives
// through Subscribe, unlike decorators which wrap a single handler.
type Middleware func(Handler) Handler

// middlewareHandler wraps a Handler with additional functionality.
type middlewareHandler struct {
	name string
	next Handler
	fn   func(ctx context.Context, payload any) error
}

func (h *middlewareHandler) EventName() string {
	return h.name
}

func (h *middlewareHandler) Handle(ctx context.Context, payload any) error {
	return h.fn(ctx, payload)
}

// chainMiddleware applies multiple middleware to a handler in order.
// Middleware are applied left-to-right (first middleware wraps innermost).
func chainMiddleware(handler Handler, middleware []Middleware) Handler {
	for _, mw := range middleware {
		handler = mw(handler)
	}
	return handler
}

// LoggingMiddleware logs event handler execution with timing.
// Logs start, completion, and errors for all event handlers.
//
// Example:
//
//	bus := broker.NewLocal(
//	    broker.WithLocalMiddleware(broker.LoggingMiddleware(logger)),
//	)
func LoggingMiddleware(log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return &middlewareHandler{
			name: next.EventName(),
			next: next,
			fn: func(ctx context.Context, payload any) error {
				start := time.Now()
				log.InfoContext(ctx, "event handler started",
					logger.Event(next.EventName()))

				err := next.Handle(ctx, payload)
				duration := time.Since(start)

				if err != nil {
					log.ErrorContext(ctx, "event handler failed",
						logger.Event(next.EventName()),
						logger.Duration(duration),
						logger.Error(err))
				} else {
					log.InfoContext(ctx, "event handler completed",
						logger.Event(next.EventName()),
						logger.Duration(duration))
				}

				return err
			},
		}
	}
}
