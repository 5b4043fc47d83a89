// Package event defines the event value shared by every broker in the relay
// module, together with the serializer abstraction used to move events across
// process boundaries.
//
// # Core Components
//
// Event represents a domain event with metadata (ID, Name, Payload, CreatedAt).
// Events are automatically assigned UUIDs and timestamps upon creation, and
// their name is derived from the payload type using reflection.
//
// Serializer converts events to and from their wire representation. The
// default JSONSerializer covers the common case; custom implementations can
// be plugged into any broker that ships with this module.
//
// Context helpers attach event metadata (ID, name, creation time) to a
// context.Context so handlers and middleware can access it without threading
// the event itself through every call.
//
// # Basic Usage
//
//	type UserCreated struct {
//		UserID string
//		Email  string
//	}
//
//	evt := event.NewEvent(UserCreated{UserID: "123", Email: "user@example.com"})
//	// evt.Name == "UserCreated"
//
//	data, err := event.JSONSerializer{}.Serialize(evt)
//	if err != nil {
//		return err
//	}
//
//	back, err := event.JSONSerializer{}.Deserialize(data)
//	if err != nil {
//		return err
//	}
//	// back.ID == evt.ID, back.Name == evt.Name
//
// Deserialized payloads arrive as map[string]any when using JSON. Typed
// handlers in the broker package convert them back into concrete types, so
// application code rarely touches the raw payload.
//
// # Custom Serializers
//
// Any encoding that can round-trip the Event struct works:
//
//	type Serializer interface {
//		Serialize(event Event) ([]byte, error)
//		Deserialize(data []byte) (Event, error)
//	}
//
// Serializer failures are reported wrapped in ErrSerializationFailed and
// ErrDeserializationFailed so callers can classify them with errors.Is.
package event
