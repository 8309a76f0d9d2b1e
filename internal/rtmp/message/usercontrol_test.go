package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeUserControlEvents(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want UserControl
	}{
		{
			"stream begin",
			[]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
			UserControl{Event: EventStreamBegin, StreamID: 1},
		},
		{
			"stream eof",
			[]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x02},
			UserControl{Event: EventStreamEOF, StreamID: 2},
		},
		{
			"stream dry",
			[]byte{0x00, 0x02, 0x00, 0x00, 0x00, 0x03},
			UserControl{Event: EventStreamDry, StreamID: 3},
		},
		{
			"set buffer length",
			[]byte{0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x0B, 0xB8},
			UserControl{Event: EventSetBufferLength, StreamID: 1, BufferLength: 3000},
		},
		{
			"stream is recorded",
			[]byte{0x00, 0x04, 0x00, 0x00, 0x00, 0x05},
			UserControl{Event: EventStreamIsRecorded, StreamID: 5},
		},
		{
			"ping request",
			[]byte{0x00, 0x06, 0x00, 0x00, 0x30, 0x39},
			UserControl{Event: EventPingRequest, Timestamp: 12345},
		},
		{
			"ping response",
			[]byte{0x00, 0x07, 0x00, 0x00, 0x30, 0x39},
			UserControl{Event: EventPingResponse, Timestamp: 12345},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeUserControl(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, *got)

			// wire round trip
			back, err := DecodeUserControl(got.Encode())
			require.NoError(t, err)
			require.Equal(t, tc.want, *back)
		})
	}
}

func TestDecodeUnknownEventIsIgnorable(t *testing.T) {
	u, err := DecodeUserControl([]byte{0x00, 0x20, 0x00, 0x00, 0x00, 0x00})
	require.ErrorIs(t, err, ErrUnknownEvent)
	require.NotNil(t, u)
	require.Equal(t, uint16(0x20), u.Event)
	require.Equal(t, "event(32)", u.EventName())
}

func TestDecodeUserControlShort(t *testing.T) {
	_, err := DecodeUserControl([]byte{0x00})
	require.ErrorIs(t, err, ErrShortPayload)
	_, err = DecodeUserControl([]byte{0x00, 0x03, 0x00, 0x00, 0x00, 0x01})
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestNewPingResponse(t *testing.T) {
	resp := NewPingResponse(777)
	require.Equal(t, []byte{0x00, 0x07, 0x00, 0x00, 0x03, 0x09}, resp.Encode())
	require.Equal(t, "PingResponse", resp.EventName())
}
