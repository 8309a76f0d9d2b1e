package sharedobject

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mx4242/go-flash-rtmp/internal/rtmp/amf"
)

// persistentFlag is the on-wire flags value for a persistent shared object.
const persistentFlag = 2

var ErrTruncated = errors.New("sharedobject: truncated payload")

// Payload is the decoded body of a shared-object message.
type Payload struct {
	Name       string
	Version    uint32
	Persistent bool
	Events     []Event
}

// Encode serializes a shared-object payload. When amf3 is set, the body gets
// the single 0x00 discriminator byte Flash Media Server expects in front of
// the (still AMF0-encoded) content.
func Encode(p *Payload, amf3 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	if amf3 {
		buf.WriteByte(0x00)
	}

	writeString(buf, p.Name)
	var head [12]byte
	binary.BigEndian.PutUint32(head[0:4], p.Version)
	if p.Persistent {
		binary.BigEndian.PutUint32(head[4:8], persistentFlag)
	}
	// head[8:12] is reserved, zero
	buf.Write(head[:])

	for _, ev := range p.Events {
		body, err := encodeEventBody(ev)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(uint8(ev.Type))
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(body)))
		buf.Write(length[:])
		buf.Write(body)
	}
	return buf.Bytes(), nil
}

func encodeEventBody(ev Event) ([]byte, error) {
	switch ev.Type {
	case EventUse, EventUseSuccess, EventRelease, EventSuccess, EventClear, EventSendMessage:
		return nil, nil
	case EventRequestChange, EventChange:
		buf := new(bytes.Buffer)
		writeString(buf, ev.Key)
		if err := amf.EncodeValue(buf, ev.Value); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case EventRemove, EventRequestRemove:
		buf := new(bytes.Buffer)
		writeString(buf, ev.Key)
		return buf.Bytes(), nil
	case EventStatus:
		buf := new(bytes.Buffer)
		writeString(buf, ev.Code)
		writeString(buf, ev.Level)
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("sharedobject: cannot encode %s", ev.Type)
	}
}

// Decode parses a shared-object payload. Unknown event tags are kept in the
// event list with an empty body so the engine can log and skip them.
func Decode(raw []byte, amf3 bool) (*Payload, error) {
	if amf3 {
		if len(raw) < 1 {
			return nil, ErrTruncated
		}
		raw = raw[1:]
	}

	name, rest, err := readString(raw)
	if err != nil {
		return nil, fmt.Errorf("sharedobject: name: %w", err)
	}
	if len(rest) < 12 {
		return nil, ErrTruncated
	}
	p := &Payload{
		Name:       name,
		Version:    binary.BigEndian.Uint32(rest[0:4]),
		Persistent: binary.BigEndian.Uint32(rest[4:8]) == persistentFlag,
	}
	rest = rest[12:]

	for len(rest) > 0 {
		if len(rest) < 5 {
			return nil, ErrTruncated
		}
		evType := EventType(rest[0])
		length := binary.BigEndian.Uint32(rest[1:5])
		rest = rest[5:]
		if uint32(len(rest)) < length {
			return nil, ErrTruncated
		}
		body := rest[:length]
		rest = rest[length:]

		ev, err := decodeEventBody(evType, body)
		if err != nil {
			return nil, err
		}
		p.Events = append(p.Events, ev)
	}
	return p, nil
}

func decodeEventBody(evType EventType, body []byte) (Event, error) {
	ev := Event{Type: evType}
	switch evType {
	case EventRequestChange, EventChange:
		key, rest, err := readString(body)
		if err != nil {
			return ev, fmt.Errorf("sharedobject: change key: %w", err)
		}
		value, _, err := amf.DecodeOne(rest)
		if err != nil {
			return ev, fmt.Errorf("sharedobject: change value: %w", err)
		}
		ev.Key = key
		ev.Value = value
	case EventRemove, EventRequestRemove:
		key, _, err := readString(body)
		if err != nil {
			return ev, fmt.Errorf("sharedobject: remove key: %w", err)
		}
		ev.Key = key
	case EventStatus:
		code, rest, err := readString(body)
		if err != nil {
			return ev, fmt.Errorf("sharedobject: status code: %w", err)
		}
		level, _, err := readString(rest)
		if err != nil {
			return ev, fmt.Errorf("sharedobject: status level: %w", err)
		}
		ev.Code = code
		ev.Level = level
	default:
		// Bodyless or unknown tag; body bytes (if any) are dropped.
	}
	return ev, nil
}

func writeString(buf *bytes.Buffer, s string) {
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(s)))
	buf.Write(length[:])
	buf.WriteString(s)
}

func readString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, ErrTruncated
	}
	length := binary.BigEndian.Uint16(b[:2])
	if len(b) < 2+int(length) {
		return "", nil, ErrTruncated
	}
	return string(b[2 : 2+length]), b[2+length:], nil
}
