package pg

import "errors"

var (
	// ErrEmptyConnectionString is returned when the connection string is empty.
	ErrEmptyConnectionString = errors.New("empty postgres connection string, use PG_CONN_URL env var")

	// ErrFailedToParseDBConfig is returned when the connection string cannot
	// be parsed into a pool configuration.
	ErrFailedToParseDBConfig = errors.New("failed to parse db config")

	// ErrFailedToOpenDBConnection is returned when PostgreSQL does not
	// become reachable within the configured retry budget.
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")

	// ErrHealthcheckFailed is returned when the healthcheck ping fails.
	ErrHealthcheckFailed = errors.New("healthcheck failed, connection is not available")

	// ErrNilPool is returned when a nil pool is passed to New.
	ErrNilPool = errors.New("postgres pool cannot be nil")

	// ErrNotSubscribed is returned by Receive before Subscribe has been called.
	ErrNotSubscribed = errors.New("transport is not subscribed")

	// ErrPayloadTooLarge is returned when an encoded notification exceeds
	// the pg_notify payload limit.
	ErrPayloadTooLarge = errors.New("notification payload exceeds pg_notify limit")
)
