package event

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event with metadata and payload.
type Event struct {
	ID        string    `json:"id"`         // Unique identifier for the event
	Name      string    `json:"name"`       // Event type name (e.g., "UserCreated")
	Payload   any       `json:"payload"`    // Event data (can be struct or []byte)
	CreatedAt time.Time `json:"created_at"` // When the event was created
}

// NewEvent creates a new Event with auto-generated ID and timestamp.
// The event name is automatically derived from the payload type using reflection.
//
// Example:
//
//	type UserCreated struct {
//	    UserID string
//	    Email  string
//	}
//
//	event := event.NewEvent(UserCreated{UserID: "123", Email: "user@example.com"})
//	// event.Name will be "UserCreated"
//	// event.ID will be a UUID
//	// event.CreatedAt will be time.Now()
func NewEvent(payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Name:      NameOf(payload),
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// NameOf extracts the event name from a value, unwrapping any pointer types.
// For struct types it returns the bare struct name (e.g., "UserCreated")
// without the package path. Users must ensure unique event type names across
// their codebase to avoid handler collisions. Returns an empty string for nil.
func NameOf(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Name()
}
