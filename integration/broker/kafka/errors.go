package kafka

import "errors"

var (
	// ErrNoBrokers is returned when no broker addresses are configured.
	ErrNoBrokers = errors.New("at least one broker address is required")

	// ErrKafkaNotReady is returned when no broker becomes reachable within
	// the configured retry budget.
	ErrKafkaNotReady = errors.New("kafka brokers not ready")

	// ErrNotSubscribed is returned by Receive before Subscribe has been called.
	ErrNotSubscribed = errors.New("transport is not subscribed")

	// ErrHealthcheckFailed is returned when the broker healthcheck fails.
	ErrHealthcheckFailed = errors.New("kafka healthcheck failed")
)
