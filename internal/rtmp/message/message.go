// Package message maps RTMP message type ids to their typed forms and owns
// the small fixed-layout codecs: protocol control bodies and user-control
// events. The numeric type-id table lives here and only here.
package message

import (
	"errors"
	"fmt"

	"github.com/mx4242/go-flash-rtmp/internal/rtmp/chunk"
)

// Message type ids. The values are wire constants, never reordered.
const (
	TypeSetChunkSize     = 1
	TypeAbortMessage     = 2
	TypeAcknowledgement  = 3
	TypeUserControl      = 4
	TypeWindowAckSize    = 5
	TypeSetPeerBandwidth = 6
	TypeAudio            = 8
	TypeVideo            = 9
	TypeDataAMF3         = 15
	TypeSharedObjectAMF3 = 16
	TypeCommandAMF3      = 17
	TypeDataAMF0         = 18
	TypeSharedObjectAMF0 = 19
	TypeCommandAMF0      = 20
	TypeAggregate        = 22
)

// Peer bandwidth limit types.
const (
	BandwidthLimitHard    = 0
	BandwidthLimitSoft    = 1
	BandwidthLimitDynamic = 2
)

var (
	ErrUnknownType  = errors.New("message: unknown message type id")
	ErrShortPayload = errors.New("message: payload too short")
)

var typeNames = map[uint8]string{
	TypeSetChunkSize:     "SetChunkSize",
	TypeAbortMessage:     "AbortMessage",
	TypeAcknowledgement:  "Acknowledgement",
	TypeUserControl:      "UserControlMessage",
	TypeWindowAckSize:    "WindowAcknowledgementSize",
	TypeSetPeerBandwidth: "SetPeerBandwidth",
	TypeAudio:            "AudioData",
	TypeVideo:            "VideoData",
	TypeDataAMF3:         "DataAMF3",
	TypeSharedObjectAMF3: "SharedObjectAMF3",
	TypeCommandAMF3:      "CommandAMF3",
	TypeDataAMF0:         "DataAMF0",
	TypeSharedObjectAMF0: "SharedObjectAMF0",
	TypeCommandAMF0:      "CommandAMF0",
	TypeAggregate:        "AggregateMessage",
}

// IsValidType reports whether id is a recognized message type.
func IsValidType(id uint8) bool {
	_, ok := typeNames[id]
	return ok
}

// TypeName returns the symbolic name for a type id, or a numeric fallback.
func TypeName(id uint8) string {
	if name, ok := typeNames[id]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", id)
}

// OutboundCSID assigns the conventional chunk stream for an outbound message.
func OutboundCSID(typeID uint8) uint32 {
	switch typeID {
	case TypeSetChunkSize, TypeAbortMessage, TypeAcknowledgement,
		TypeUserControl, TypeWindowAckSize, TypeSetPeerBandwidth:
		return chunk.CSIDProtocolControl
	case TypeCommandAMF0, TypeCommandAMF3:
		return chunk.CSIDCommand
	case TypeAudio:
		return chunk.CSIDAudio
	case TypeVideo:
		return chunk.CSIDVideo
	case TypeDataAMF0, TypeDataAMF3, TypeSharedObjectAMF0, TypeSharedObjectAMF3:
		return chunk.CSIDData
	default:
		return chunk.CSIDCommand
	}
}
