package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/relay/core/retry"
)

// Decorator wraps a Handler to add additional functionality.
// Multiple decorators can be composed using the Decorate helper.
type Decorator func(Handler) Handler

// decoratorHandler wraps a Handler with additional functionality.
type decoratorHandler struct {
	name string
	next Handler
	fn   func(ctx context.Context, payload any) error
}

func (h *decoratorHandler) EventName() string {
	return h.name
}

func (h *decoratorHandler) Handle(ctx context.Context, payload any) error {
	return h.fn(ctx, payload)
}

// WithRetry wraps a handler to re-run it under the given retry policy.
// The policy decides backoff, attempt budget, and which errors are worth
// retrying; a zero policy retries every error with exponential backoff.
//
// Example:
//
//	handler := broker.WithRetry(
//	    broker.NewHandlerFunc(notifyWebhookHandler),
//	    retry.Policy{MaxAttempts: 3},
//	)
//	bus.Subscribe(handler)
func WithRetry(handler Handler, policy retry.Policy) Handler {
	return &decoratorHandler{
		name: handler.EventName(),
		next: handler,
		fn: func(ctx context.Context, payload any) error {
			return policy.Do(ctx, func(ctx context.Context) error {
				return handler.Handle(ctx, payload)
			})
		},
	}
}

// WithTimeout wraps a handler to enforce a maximum execution time.
// Cancels the handler's context if it exceeds the timeout.
//
// Example:
//
//	handler := broker.WithTimeout(
//	    broker.NewHandlerFunc(processImageHandler),
//	    30*time.Second,
//	)
//	bus.Subscribe(handler)
func WithTimeout(handler Handler, timeout time.Duration) Handler {
	return &decoratorHandler{
		name: handler.EventName(),
		next: handler,
		fn: func(ctx context.Context, payload any) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				errCh <- handler.Handle(ctx, payload)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return fmt.Errorf("handler timeout after %s: %w", timeout, ctx.Err())
			}
		},
	}
}

// Retry returns a Decorator that wraps a handler with retry logic.
// This is a factory function for use with the Decorate helper.
//
// Example:
//
//	handler := broker.Decorate(
//	    broker.NewHandlerFunc(notifyWebhookHandler),
//	    broker.Retry(retry.Policy{MaxAttempts: 3}),
//	)
func Retry(policy retry.Policy) Decorator {
	return func(h Handler) Handler {
		return WithRetry(h, policy)
	}
}

// Timeout returns a Decorator that wraps a handler with timeout logic.
// This is a factory function for use with the Decorate helper.
//
// Example:
//
//	handler := broker.Decorate(
//	    broker.NewHandlerFunc(processImageHandler),
//	    broker.Timeout(30*time.Second),
//	)
func Timeout(timeout time.Duration) Decorator {
	return func(h Handler) Handler {
		return WithTimeout(h, timeout)
	}
}

// Decorate applies multiple decorators to a handler in sequence.
// Decorators are applied left-to-right (first decorator wraps innermost).
//
// Example:
//
//	handler := broker.Decorate(
//	    broker.NewHandlerFunc(notifyWebhookHandler),
//	    broker.Retry(retry.Policy{MaxAttempts: 3}),
//	    broker.Timeout(30*time.Second),
//	)
//	bus.Subscribe(handler)
func Decorate(handler Handler, decorators ...Decorator) Handler {
	for _, decorator := range decorators {
		handler = decorator(handler)
	}
	return handler
}
