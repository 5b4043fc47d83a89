package event_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/event"
)

// Test event types
type (
	UserCreated struct {
		UserID string
		Email  string
	}

	OrderShipped struct {
		OrderID string
	}

	CounterBumped int
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	t.Run("populates all metadata", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		evt := event.NewEvent(UserCreated{UserID: "123", Email: "user@example.com"})
		after := time.Now()

		_, err := uuid.Parse(evt.ID)
		require.NoError(t, err, "event ID should be a valid UUID")
		assert.Equal(t, "UserCreated", evt.Name)
		assert.Equal(t, UserCreated{UserID: "123", Email: "user@example.com"}, evt.Payload)
		assert.False(t, evt.CreatedAt.Before(before))
		assert.False(t, evt.CreatedAt.After(after))
	})

	t.Run("unique IDs per event", func(t *testing.T) {
		t.Parallel()

		first := event.NewEvent(OrderShipped{OrderID: "a"})
		second := event.NewEvent(OrderShipped{OrderID: "a"})

		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestNameOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "struct value", value: UserCreated{}, expected: "UserCreated"},
		{name: "struct pointer", value: &UserCreated{}, expected: "UserCreated"},
		{name: "double pointer", value: func() any { p := &OrderShipped{}; return &p }(), expected: "OrderShipped"},
		{name: "named primitive", value: CounterBumped(1), expected: "CounterBumped"},
		{name: "nil value", value: nil, expected: ""},
		{name: "anonymous struct", value: struct{ X int }{}, expected: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, event.NameOf(tt.value))
		})
	}
}
