// Package logger provides structured logging attributes built on Go's
// standard slog package, shared by every component in the relay module so
// log output stays uniform across brokers, bridges and transports.
//
// # Nil Safety
//
// Helpers return an empty slog.Attr for nil or empty input, so call sites
// never need explicit nil checks:
//
//	log.Info("event forwarded",
//		logger.Component("broker"),
//		logger.Event(evt.Name),
//		logger.EventID(evt.ID),
//		logger.Error(err), // no-op when err is nil
//	)
//
// # Attribute Conventions
//
// Keys are stable snake_case strings: "error", "errors", "duration",
// "elapsed", "event", "event_id", "origin", "component", "channel",
// "retry_count". Dashboards and log queries can rely on them not changing.
package logger
