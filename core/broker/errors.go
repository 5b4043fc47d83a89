package broker

import "errors"

var (
	// ErrBrokerAlreadyRunning is returned when attempting to start a broker that is already running.
	ErrBrokerAlreadyRunning = errors.New("broker already running")

	// ErrBrokerNotRunning is reported by healthchecks when the broker has not been started.
	ErrBrokerNotRunning = errors.New("broker is not running")

	// ErrListenerCrashed is reported by healthchecks after the listener
	// terminated on a non-transient transport error.
	ErrListenerCrashed = errors.New("listener crashed")

	// ErrHealthcheckFailed is the base error for all healthcheck failures.
	ErrHealthcheckFailed = errors.New("healthcheck failed")

	// ErrMalformedNotification is returned when wire bytes cannot be decoded
	// into a notification frame.
	ErrMalformedNotification = errors.New("malformed notification")

	// ErrNilTransport is returned when a bridge is constructed without a transport.
	ErrNilTransport = errors.New("transport is required")

	// ErrNilHandler is returned when subscribing with a nil handler or callback.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrNoEventName is returned when a subscription would match no event name.
	ErrNoEventName = errors.New("subscription has no event name")
)
