package sharedobject

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeAMF3ContainerLayout(t *testing.T) {
	raw, err := Encode(&Payload{
		Name:       "so1",
		Version:    0,
		Persistent: true,
		Events: []Event{
			{Type: EventUse},
			{Type: EventRequestChange, Key: "k", Value: float64(3)},
		},
	}, true)
	require.NoError(t, err)

	// discriminator byte
	require.Equal(t, byte(0x00), raw[0])
	// u16 name length + name
	require.Equal(t, []byte{0x00, 0x03, 's', 'o', '1'}, raw[1:6])
	// version, persistent flag (2), reserved
	require.Equal(t, uint32(0), binary.BigEndian.Uint32(raw[6:10]))
	require.Equal(t, uint32(2), binary.BigEndian.Uint32(raw[10:14]))
	require.Equal(t, uint32(0), binary.BigEndian.Uint32(raw[14:18]))

	// first event: Use, empty body
	require.Equal(t, byte(EventUse), raw[18])
	require.Equal(t, uint32(0), binary.BigEndian.Uint32(raw[19:23]))

	// second event: RequestChange with key "k" and Number(3)
	require.Equal(t, byte(EventRequestChange), raw[23])
	bodyLen := binary.BigEndian.Uint32(raw[24:28])
	body := raw[28:]
	require.Equal(t, uint32(len(body)), bodyLen)
	require.Equal(t, []byte{0x00, 0x01, 'k'}, body[:3])
	require.Equal(t, byte(0x00), body[3], "AMF0 number marker")
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	for _, amf3 := range []bool{false, true} {
		p := &Payload{
			Name:       "scores",
			Version:    12,
			Persistent: false,
			Events: []Event{
				{Type: EventUse},
				{Type: EventRequestChange, Key: "high", Value: float64(9000)},
				{Type: EventRequestRemove, Key: "old"},
				{Type: EventStatus, Code: "SharedObject.Flush.Success", Level: "status"},
				{Type: EventClear},
			},
		}
		raw, err := Encode(p, amf3)
		require.NoError(t, err)

		back, err := Decode(raw, amf3)
		require.NoError(t, err)
		require.Equal(t, p, back)
	}
}

func TestDecodeServerBurst(t *testing.T) {
	raw, err := Encode(&Payload{
		Name:    "so1",
		Version: 2,
		Events: []Event{
			{Type: EventUseSuccess},
			{Type: EventChange, Key: "k", Value: float64(3)},
		},
	}, false)
	require.NoError(t, err)

	p, err := Decode(raw, false)
	require.NoError(t, err)
	require.Equal(t, "so1", p.Name)
	require.Equal(t, uint32(2), p.Version)
	require.Len(t, p.Events, 2)
	require.Equal(t, EventUseSuccess, p.Events[0].Type)
	require.Equal(t, EventChange, p.Events[1].Type)
	require.Equal(t, float64(3), p.Events[1].Value)
}

func TestDecodeUnknownTagKeepsGoing(t *testing.T) {
	raw, err := Encode(&Payload{Name: "so1", Version: 1}, false)
	require.NoError(t, err)
	// append an event with an unknown tag and a 2-byte body
	raw = append(raw, 0x2A, 0x00, 0x00, 0x00, 0x02, 0xDE, 0xAD)
	// and a known event after it
	raw = append(raw, byte(EventClear), 0x00, 0x00, 0x00, 0x00)

	p, err := Decode(raw, false)
	require.NoError(t, err)
	require.Len(t, p.Events, 2)
	require.Equal(t, EventType(0x2A), p.Events[0].Type)
	require.Equal(t, EventClear, p.Events[1].Type)
}

func TestDecodeTruncated(t *testing.T) {
	good, err := Encode(&Payload{
		Name:    "so1",
		Version: 1,
		Events:  []Event{{Type: EventChange, Key: "k", Value: float64(1)}},
	}, false)
	require.NoError(t, err)

	// name block is 5 bytes, fixed header 12, then the event record
	for _, cut := range []int{1, 4, 6, 16, 18, 21, len(good) - 1} {
		_, err := Decode(good[:cut], false)
		require.Error(t, err, "cut at %d", cut)
	}

	_, err = Decode(nil, true)
	require.ErrorIs(t, err, ErrTruncated)
}
