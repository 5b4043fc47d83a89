package broker

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/relay/core/event"
)

// notification framing: the origin instance UUID in canonical string form,
// one space, then the serialized event. The prefix stays readable in any
// transport console and keeps the payload encoding opaque to the codec.
var frameSeparator = []byte(" ")

// Codec translates between local events and wire notifications. Encoding
// stamps the bridge instance's origin ID onto the frame; decoding strips
// it and filters out frames the same instance produced, which is what
// prevents a bridge from re-delivering its own events after the transport
// echoes them back.
type Codec struct {
	origin     uuid.UUID
	serializer event.Serializer
}

// NewCodec creates a codec bound to an origin instance ID. A nil
// serializer defaults to event.JSONSerializer.
func NewCodec(origin uuid.UUID, serializer event.Serializer) *Codec {
	if serializer == nil {
		serializer = event.JSONSerializer{}
	}
	return &Codec{
		origin:     origin,
		serializer: serializer,
	}
}

// Origin returns the instance ID the codec stamps onto outgoing frames.
func (c *Codec) Origin() uuid.UUID {
	return c.origin
}

// Encode serializes the event and prepends the origin frame.
func (c *Codec) Encode(evt event.Event) ([]byte, error) {
	payload, err := c.serializer.Serialize(evt)
	if err != nil {
		return nil, err
	}

	origin := c.origin.String()
	data := make([]byte, 0, len(origin)+1+len(payload))
	data = append(data, origin...)
	data = append(data, frameSeparator...)
	data = append(data, payload...)
	return data, nil
}

// Decode parses a wire notification. It returns:
//
//   - (nil, nil) when the notification originated from this instance and
//     must not be re-delivered locally;
//   - (nil, err) wrapping ErrMalformedNotification when the frame or the
//     payload cannot be parsed; callers log and drop these;
//   - (event, nil) for a deliverable remote event.
func (c *Codec) Decode(data []byte) (*event.Event, error) {
	frame, payload, ok := bytes.Cut(data, frameSeparator)
	if !ok {
		return nil, fmt.Errorf("%w: missing origin frame", ErrMalformedNotification)
	}

	origin, err := uuid.Parse(string(frame))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid origin %q: %w", ErrMalformedNotification, frame, err)
	}

	if origin == c.origin {
		return nil, nil
	}

	evt, err := c.serializer.Deserialize(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedNotification, err)
	}
	return &evt, nil
}
