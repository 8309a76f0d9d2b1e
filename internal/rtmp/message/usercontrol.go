package message

import (
	"encoding/binary"
	"fmt"
)

// User control event types (2-byte big-endian tag before the body).
const (
	EventStreamBegin      = 0
	EventStreamEOF        = 1
	EventStreamDry        = 2
	EventSetBufferLength  = 3
	EventStreamIsRecorded = 4
	EventPingRequest      = 6
	EventPingResponse     = 7
)

// ErrUnknownEvent marks user-control subtypes this client does not know.
// Unknown events are ignorable: log and carry on.
var ErrUnknownEvent = fmt.Errorf("message: unknown user control event")

var eventNames = map[uint16]string{
	EventStreamBegin:      "StreamBegin",
	EventStreamEOF:        "StreamEOF",
	EventStreamDry:        "StreamDry",
	EventSetBufferLength:  "SetBufferLength",
	EventStreamIsRecorded: "StreamIsRecorded",
	EventPingRequest:      "PingRequest",
	EventPingResponse:     "PingResponse",
}

// UserControl is one decoded user-control event. The populated fields depend
// on the event: stream events carry StreamID, SetBufferLength adds
// BufferLength, pings carry Timestamp.
type UserControl struct {
	Event        uint16
	StreamID     uint32
	BufferLength uint32
	Timestamp    uint32
}

// EventName returns the symbolic name of the event.
func (u *UserControl) EventName() string {
	if name, ok := eventNames[u.Event]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", u.Event)
}

// DecodeUserControl parses a user-control message payload.
func DecodeUserControl(payload []byte) (*UserControl, error) {
	if len(payload) < 2 {
		return nil, ErrShortPayload
	}
	u := &UserControl{Event: binary.BigEndian.Uint16(payload[:2])}
	body := payload[2:]

	switch u.Event {
	case EventStreamBegin, EventStreamEOF, EventStreamDry, EventStreamIsRecorded:
		v, err := payloadU32(body)
		if err != nil {
			return nil, err
		}
		u.StreamID = v
	case EventSetBufferLength:
		if len(body) < 8 {
			return nil, ErrShortPayload
		}
		u.StreamID = binary.BigEndian.Uint32(body[:4])
		u.BufferLength = binary.BigEndian.Uint32(body[4:8])
	case EventPingRequest, EventPingResponse:
		v, err := payloadU32(body)
		if err != nil {
			return nil, err
		}
		u.Timestamp = v
	default:
		return u, fmt.Errorf("%w: %d", ErrUnknownEvent, u.Event)
	}
	return u, nil
}

// Encode serializes the event back to wire form.
func (u *UserControl) Encode() []byte {
	buf := make([]byte, 2, 10)
	binary.BigEndian.PutUint16(buf, u.Event)

	switch u.Event {
	case EventStreamBegin, EventStreamEOF, EventStreamDry, EventStreamIsRecorded:
		buf = binary.BigEndian.AppendUint32(buf, u.StreamID)
	case EventSetBufferLength:
		buf = binary.BigEndian.AppendUint32(buf, u.StreamID)
		buf = binary.BigEndian.AppendUint32(buf, u.BufferLength)
	case EventPingRequest, EventPingResponse:
		buf = binary.BigEndian.AppendUint32(buf, u.Timestamp)
	}
	return buf
}

// NewPingResponse builds the reply for a ping request, echoing its timestamp.
func NewPingResponse(timestamp uint32) *UserControl {
	return &UserControl{Event: EventPingResponse, Timestamp: timestamp}
}
