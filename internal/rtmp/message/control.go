package message

import (
	"encoding/binary"
	"fmt"
)

// SetChunkSize announces a new maximum chunk payload size.
type SetChunkSize struct {
	Size uint32
}

// AbortMessage tells the peer to drop the partial message on a chunk stream.
type AbortMessage struct {
	CSID uint32
}

// Acknowledgement reports cumulative bytes received.
type Acknowledgement struct {
	SequenceNumber uint32
}

// WindowAckSize announces how many bytes may arrive between acknowledgements.
type WindowAckSize struct {
	Size uint32
}

// SetPeerBandwidth limits the peer's output bandwidth.
type SetPeerBandwidth struct {
	Size      uint32
	LimitType uint8
}

func DecodeSetChunkSize(payload []byte) (*SetChunkSize, error) {
	size, err := payloadU32(payload)
	if err != nil {
		return nil, err
	}
	// The high bit is reserved and must be clear.
	if size == 0 || size > 0x7FFFFFFF {
		return nil, fmt.Errorf("message: chunk size %d out of range", size)
	}
	return &SetChunkSize{Size: size}, nil
}

func DecodeAbortMessage(payload []byte) (*AbortMessage, error) {
	csid, err := payloadU32(payload)
	if err != nil {
		return nil, err
	}
	return &AbortMessage{CSID: csid}, nil
}

func DecodeAcknowledgement(payload []byte) (*Acknowledgement, error) {
	seq, err := payloadU32(payload)
	if err != nil {
		return nil, err
	}
	return &Acknowledgement{SequenceNumber: seq}, nil
}

func DecodeWindowAckSize(payload []byte) (*WindowAckSize, error) {
	size, err := payloadU32(payload)
	if err != nil {
		return nil, err
	}
	return &WindowAckSize{Size: size}, nil
}

func DecodeSetPeerBandwidth(payload []byte) (*SetPeerBandwidth, error) {
	if len(payload) < 5 {
		return nil, ErrShortPayload
	}
	limit := payload[4]
	if limit > BandwidthLimitDynamic {
		return nil, fmt.Errorf("message: invalid bandwidth limit type %d", limit)
	}
	size, _ := payloadU32(payload)
	return &SetPeerBandwidth{Size: size, LimitType: limit}, nil
}

func (m *SetChunkSize) Encode() []byte     { return encodeU32(m.Size) }
func (m *AbortMessage) Encode() []byte     { return encodeU32(m.CSID) }
func (m *Acknowledgement) Encode() []byte  { return encodeU32(m.SequenceNumber) }
func (m *WindowAckSize) Encode() []byte    { return encodeU32(m.Size) }
func (m *SetPeerBandwidth) Encode() []byte { return append(encodeU32(m.Size), m.LimitType) }

func payloadU32(payload []byte) (uint32, error) {
	if len(payload) < 4 {
		return 0, ErrShortPayload
	}
	return binary.BigEndian.Uint32(payload[:4]), nil
}

func encodeU32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}
