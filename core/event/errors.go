package event

import "errors"

var (
	// ErrSerializationFailed is returned when an event cannot be encoded for the wire.
	ErrSerializationFailed = errors.New("failed to serialize event")

	// ErrDeserializationFailed is returned when wire bytes cannot be decoded into an event.
	ErrDeserializationFailed = errors.New("failed to deserialize event")
)
