// Package retry implements the backoff policy used by every transport
// bridge in the relay module: retry while an error is transient, wait with
// capped exponential backoff between attempts, report each failed attempt,
// and surface the last error unchanged once the policy gives up.
//
// # Semantics
//
// Do and DoValue run an operation under a Policy:
//
//   - success returns immediately with the operation's result;
//   - an error rejected by the Transient predicate propagates immediately,
//     without consuming retry budget;
//   - a transient error is checked against the stop conditions
//     (MaxAttempts, MaxElapsedTime); if one is hit, the last operation
//     error is returned as-is, never wrapped;
//   - otherwise OnRetry reports the failed attempt and the next attempt
//     runs after the backoff wait.
//
// With MaxAttempts = N and an operation that always fails, the operation
// runs exactly N times and OnRetry fires exactly N-1 times.
//
// Cancelling the context aborts an in-progress backoff wait and returns
// the context error.
//
// # Usage
//
//	policy := retry.Policy{
//		MaxAttempts:     5,
//		InitialInterval: 100 * time.Millisecond,
//		Transient:       retry.IsConnectionError,
//		OnRetry: func(attempt int, err error) {
//			log.Warn("connection failure", "attempt", attempt, "error", err)
//		},
//	}
//
//	msg, err := retry.DoValue(ctx, policy, func(ctx context.Context) (Message, error) {
//		return conn.Receive(ctx)
//	})
//
// IsConnectionError is the stock transient predicate: it matches lost or
// unreachable network peers and deliberately excludes context
// cancellation.
package retry
