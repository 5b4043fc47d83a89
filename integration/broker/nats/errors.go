package nats

import "errors"

var (
	// ErrEmptyConnectionURL is returned when the connection URL is empty.
	ErrEmptyConnectionURL = errors.New("empty connection URL")

	// ErrNATSNotReady is returned when the NATS server does not become
	// reachable within the configured retry budget.
	ErrNATSNotReady = errors.New("nats connection not ready")

	// ErrNilConn is returned when a nil connection is passed to New.
	ErrNilConn = errors.New("nats connection cannot be nil")

	// ErrNotSubscribed is returned by Receive before Subscribe has been called.
	ErrNotSubscribed = errors.New("transport is not subscribed")

	// ErrHealthcheckFailed is returned when the NATS healthcheck fails.
	ErrHealthcheckFailed = errors.New("nats healthcheck failed")
)
