package event

import (
	"encoding/json"
	"fmt"
)

// Serializer converts events to and from their wire representation.
// Implementations must be safe for concurrent use; a single serializer
// instance is shared between the publish and listen paths of a broker.
type Serializer interface {
	// Serialize encodes the full event (metadata and payload) into bytes.
	Serialize(event Event) ([]byte, error)

	// Deserialize decodes bytes produced by Serialize back into an event.
	Deserialize(data []byte) (Event, error)
}

// JSONSerializer encodes events as JSON. It is the default serializer:
// payloads travel as JSON objects and are reconstructed as
// map[string]any on the receiving side, where typed handlers convert
// them back into concrete payload types.
type JSONSerializer struct{}

// Serialize implements Serializer.
func (JSONSerializer) Serialize(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// Deserialize implements Serializer.
func (JSONSerializer) Deserialize(data []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrDeserializationFailed, err)
	}
	return evt, nil
}
