// Package chunk implements the RTMP chunk stream codec: slicing logical
// messages into format-0/1/2/3 chunks on the write path and reassembling
// interleaved chunk streams back into messages on the read path.
package chunk

import (
	"errors"
	"fmt"
	"io"

	"github.com/mx4242/go-flash-rtmp/internal/rtmp/wire"
)

const (
	// DefaultChunkSize is the chunk payload size both sides start with.
	DefaultChunkSize = 128

	// DefaultMaxMessageSize guards reassembly against absurd declared lengths.
	DefaultMaxMessageSize = 16 * 1024 * 1024

	// MinCSID and MaxCSID bound legal chunk stream ids. 0 and 1 are basic
	// header encoding markers, not identifiers.
	MinCSID = 2
	MaxCSID = 64 + 0xFFFF // 65599

	// extendedMarker in the 24-bit timestamp field means a 32-bit extended
	// timestamp follows the message header.
	extendedMarker = 0xFFFFFF
)

// Conventional chunk stream assignments for outbound messages.
const (
	CSIDProtocolControl = 2
	CSIDCommand         = 3
	CSIDAudio           = 4
	CSIDVideo           = 5
	CSIDData            = 6
)

var ErrInvalidCSID = errors.New("chunk: invalid chunk stream id")

// Message is one reassembled logical RTMP message.
type Message struct {
	Timestamp uint32
	TypeID    uint8
	StreamID  uint32
	CSID      uint32
	Payload   []byte
}

// basicHeader is the decoded 1-3 byte chunk prefix.
type basicHeader struct {
	format uint8
	csid   uint32
}

// readBasicHeader decodes the 1, 2 or 3 byte basic header. The 2-byte form
// carries 64+b1, the 3-byte form 64+b2*256+b1 (low byte on the wire first).
func readBasicHeader(r io.Reader) (basicHeader, error) {
	first, err := wire.ReadU8(r)
	if err != nil {
		return basicHeader{}, err
	}
	h := basicHeader{format: first >> 6}

	switch first & 0x3F {
	case 0:
		b1, err := wire.ReadU8(r)
		if err != nil {
			return basicHeader{}, err
		}
		h.csid = 64 + uint32(b1)
	case 1:
		b1, err := wire.ReadU8(r)
		if err != nil {
			return basicHeader{}, err
		}
		b2, err := wire.ReadU8(r)
		if err != nil {
			return basicHeader{}, err
		}
		h.csid = 64 + uint32(b2)<<8 + uint32(b1)
	default:
		h.csid = uint32(first & 0x3F)
	}
	return h, nil
}

// writeBasicHeader encodes the shortest admissible form for csid.
func writeBasicHeader(w io.Writer, format uint8, csid uint32) error {
	switch {
	case csid < MinCSID || csid > MaxCSID:
		return fmt.Errorf("%w: %d", ErrInvalidCSID, csid)
	case csid <= 63:
		return wire.WriteU8(w, format<<6|uint8(csid))
	case csid <= 319:
		if err := wire.WriteU8(w, format<<6); err != nil {
			return err
		}
		return wire.WriteU8(w, uint8(csid-64))
	default:
		rest := csid - 64
		if err := wire.WriteU8(w, format<<6|1); err != nil {
			return err
		}
		if err := wire.WriteU8(w, uint8(rest&0xFF)); err != nil {
			return err
		}
		return wire.WriteU8(w, uint8(rest>>8))
	}
}
