package chunk

import (
	"errors"
	"fmt"
	"io"

	"github.com/mx4242/go-flash-rtmp/internal/rtmp/wire"
)

var (
	ErrFirstChunkNotType0 = errors.New("chunk: first chunk on stream is not type 0")
	ErrMessageTooLarge    = errors.New("chunk: declared message length exceeds limit")
	ErrInterleavedMessage = errors.New("chunk: new message started before previous completed")
)

// streamState carries the last-seen header fields for one CSID, plus the
// in-flight reassembly buffer. Header fields persist across messages so
// compressed headers can inherit them.
type streamState struct {
	timestamp   uint32 // absolute
	delta       uint32
	length      uint32
	typeID      uint8
	streamID    uint32
	hadExtended bool // initial chunk of current message used an extended timestamp

	buf       []byte
	remaining uint32
}

func (s *streamState) inProgress() bool { return s.remaining > 0 }

// Reader reassembles interleaved chunk streams into logical messages.
// Not safe for concurrent use; one read loop owns it.
type Reader struct {
	r              io.Reader
	chunkSize      uint32
	maxMessageSize uint32
	states         map[uint32]*streamState
}

// NewReader creates a reader with the protocol-default 128-byte chunk size.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:              r,
		chunkSize:      DefaultChunkSize,
		maxMessageSize: DefaultMaxMessageSize,
		states:         make(map[uint32]*streamState),
	}
}

// SetChunkSize applies a peer-announced chunk size. Callers validate range.
func (r *Reader) SetChunkSize(size uint32) {
	if size > 0 {
		r.chunkSize = size
	}
}

// ChunkSize reports the current inbound chunk size.
func (r *Reader) ChunkSize() uint32 { return r.chunkSize }

// SetMaxMessageSize overrides the reassembly guard.
func (r *Reader) SetMaxMessageSize(size uint32) {
	if size > 0 {
		r.maxMessageSize = size
	}
}

// Abort discards the partially assembled message on csid, keeping the
// header fields for future inheritance. Used for Abort Message (type 2).
func (r *Reader) Abort(csid uint32) {
	if s, ok := r.states[csid]; ok {
		s.buf = nil
		s.remaining = 0
	}
}

// PartialCSIDs lists chunk streams with a message still in flight.
func (r *Reader) PartialCSIDs() []uint32 {
	var csids []uint32
	for csid, s := range r.states {
		if s.inProgress() {
			csids = append(csids, csid)
		}
	}
	return csids
}

// ReadMessage drives the chunk loop until one complete message is emitted.
// Chunks from other streams may be consumed along the way; their messages are
// emitted by later calls in wire order per stream.
func (r *Reader) ReadMessage() (*Message, error) {
	for {
		msg, err := r.readChunk()
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}
	}
}

// readChunk consumes exactly one chunk. Returns a message when the chunk
// completed one, nil otherwise.
func (r *Reader) readChunk() (*Message, error) {
	bh, err := readBasicHeader(r.r)
	if err != nil {
		return nil, err
	}

	state, ok := r.states[bh.csid]
	if !ok {
		if bh.format != 0 {
			return nil, fmt.Errorf("%w: csid %d format %d", ErrFirstChunkNotType0, bh.csid, bh.format)
		}
		state = &streamState{}
		r.states[bh.csid] = state
	}

	switch bh.format {
	case 0:
		if state.inProgress() {
			return nil, fmt.Errorf("%w: csid %d", ErrInterleavedMessage, bh.csid)
		}
		var mh [11]byte
		if _, err := io.ReadFull(r.r, mh[:]); err != nil {
			return nil, err
		}
		ts := wire.U24BE(mh[0:3])
		state.length = wire.U24BE(mh[3:6])
		state.typeID = mh[6]
		state.streamID = uint32(mh[7]) | uint32(mh[8])<<8 | uint32(mh[9])<<16 | uint32(mh[10])<<24
		state.delta = 0
		state.hadExtended = ts == extendedMarker
		if state.hadExtended {
			if ts, err = wire.ReadU32BE(r.r); err != nil {
				return nil, err
			}
		}
		state.timestamp = ts
		if err := r.beginMessage(state); err != nil {
			return nil, err
		}

	case 1:
		if state.inProgress() {
			return nil, fmt.Errorf("%w: csid %d", ErrInterleavedMessage, bh.csid)
		}
		var mh [7]byte
		if _, err := io.ReadFull(r.r, mh[:]); err != nil {
			return nil, err
		}
		delta := wire.U24BE(mh[0:3])
		state.length = wire.U24BE(mh[3:6])
		state.typeID = mh[6]
		state.hadExtended = delta == extendedMarker
		if state.hadExtended {
			if delta, err = wire.ReadU32BE(r.r); err != nil {
				return nil, err
			}
		}
		state.delta = delta
		state.timestamp += delta
		if err := r.beginMessage(state); err != nil {
			return nil, err
		}

	case 2:
		if state.inProgress() {
			return nil, fmt.Errorf("%w: csid %d", ErrInterleavedMessage, bh.csid)
		}
		delta, err := wire.ReadU24BE(r.r)
		if err != nil {
			return nil, err
		}
		state.hadExtended = delta == extendedMarker
		if state.hadExtended {
			if delta, err = wire.ReadU32BE(r.r); err != nil {
				return nil, err
			}
		}
		state.delta = delta
		state.timestamp += delta
		if err := r.beginMessage(state); err != nil {
			return nil, err
		}

	case 3:
		// When the message that began on this stream used an extended
		// timestamp, every type-3 chunk of it carries the 32-bit value
		// again. This applies both to continuations and to a repeated
		// message started by a bare type-3 header.
		if state.inProgress() {
			if state.hadExtended {
				if _, err := wire.ReadU32BE(r.r); err != nil {
					return nil, err
				}
			}
		} else {
			delta := state.delta
			if state.hadExtended {
				if delta, err = wire.ReadU32BE(r.r); err != nil {
					return nil, err
				}
				state.delta = delta
			}
			state.timestamp += delta
			if err := r.beginMessage(state); err != nil {
				return nil, err
			}
		}
	}

	// Append one chunk worth of payload.
	toRead := state.remaining
	if toRead > r.chunkSize {
		toRead = r.chunkSize
	}
	if toRead > 0 {
		start := len(state.buf)
		state.buf = state.buf[:start+int(toRead)]
		if _, err := io.ReadFull(r.r, state.buf[start:]); err != nil {
			return nil, err
		}
		state.remaining -= toRead
	}

	if state.remaining > 0 {
		return nil, nil
	}

	msg := &Message{
		Timestamp: state.timestamp,
		TypeID:    state.typeID,
		StreamID:  state.streamID,
		CSID:      bh.csid,
		Payload:   state.buf,
	}
	state.buf = nil
	return msg, nil
}

// beginMessage starts reassembly of a new message on the stream.
func (r *Reader) beginMessage(state *streamState) error {
	if state.length > r.maxMessageSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, state.length, r.maxMessageSize)
	}
	state.buf = make([]byte, 0, state.length)
	state.remaining = state.length
	return nil
}
