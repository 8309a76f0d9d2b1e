package message

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mx4242/go-flash-rtmp/internal/rtmp/chunk"
)

func TestTypeTable(t *testing.T) {
	require.True(t, IsValidType(TypeSetChunkSize))
	require.True(t, IsValidType(TypeCommandAMF0))
	require.True(t, IsValidType(TypeAggregate))
	require.False(t, IsValidType(7))
	require.False(t, IsValidType(0))
	require.False(t, IsValidType(99))

	require.Equal(t, "CommandAMF0", TypeName(TypeCommandAMF0))
	require.Equal(t, "SharedObjectAMF3", TypeName(TypeSharedObjectAMF3))
	require.Equal(t, "type(99)", TypeName(99))
}

func TestOutboundCSIDPolicy(t *testing.T) {
	cases := map[uint8]uint32{
		TypeSetChunkSize:     chunk.CSIDProtocolControl,
		TypeAbortMessage:     chunk.CSIDProtocolControl,
		TypeAcknowledgement:  chunk.CSIDProtocolControl,
		TypeUserControl:      chunk.CSIDProtocolControl,
		TypeWindowAckSize:    chunk.CSIDProtocolControl,
		TypeSetPeerBandwidth: chunk.CSIDProtocolControl,
		TypeCommandAMF0:      chunk.CSIDCommand,
		TypeCommandAMF3:      chunk.CSIDCommand,
		TypeAudio:            chunk.CSIDAudio,
		TypeVideo:            chunk.CSIDVideo,
		TypeDataAMF0:         chunk.CSIDData,
		TypeDataAMF3:         chunk.CSIDData,
		TypeSharedObjectAMF0: chunk.CSIDData,
		TypeSharedObjectAMF3: chunk.CSIDData,
	}
	for typeID, want := range cases {
		require.Equal(t, want, OutboundCSID(typeID), "type %d", typeID)
	}
}

func TestDecodeSetChunkSize(t *testing.T) {
	m, err := DecodeSetChunkSize([]byte{0x00, 0x00, 0x10, 0x00})
	require.NoError(t, err)
	require.Equal(t, uint32(4096), m.Size)

	_, err = DecodeSetChunkSize([]byte{0x00, 0x00, 0x00, 0x00})
	require.Error(t, err, "zero is out of range")

	_, err = DecodeSetChunkSize([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	require.Error(t, err, "reserved high bit must be clear")

	_, err = DecodeSetChunkSize([]byte{0x00, 0x01})
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestDecodeSetPeerBandwidth(t *testing.T) {
	m, err := DecodeSetPeerBandwidth([]byte{0x00, 0x26, 0x25, 0xA0, 0x02})
	require.NoError(t, err)
	require.Equal(t, uint32(2500000), m.Size)
	require.Equal(t, uint8(BandwidthLimitDynamic), m.LimitType)

	_, err = DecodeSetPeerBandwidth([]byte{0x00, 0x00, 0x00, 0x01, 0x07})
	require.Error(t, err, "limit type above dynamic")

	_, err = DecodeSetPeerBandwidth([]byte{0x00, 0x00, 0x00, 0x01})
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestControlRoundTrips(t *testing.T) {
	ws, err := DecodeWindowAckSize((&WindowAckSize{Size: 2500000}).Encode())
	require.NoError(t, err)
	require.Equal(t, uint32(2500000), ws.Size)

	ack, err := DecodeAcknowledgement((&Acknowledgement{SequenceNumber: 123456}).Encode())
	require.NoError(t, err)
	require.Equal(t, uint32(123456), ack.SequenceNumber)

	ab, err := DecodeAbortMessage((&AbortMessage{CSID: 3}).Encode())
	require.NoError(t, err)
	require.Equal(t, uint32(3), ab.CSID)
}
