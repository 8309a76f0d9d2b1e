package chunk

import (
	"io"

	"github.com/mx4242/go-flash-rtmp/internal/pool"
	"github.com/mx4242/go-flash-rtmp/internal/rtmp/wire"
)

// Writer fragments logical messages into chunks. The first chunk of every
// message carries a full type-0 header; continuations use type 3. Type 1/2
// compression is never emitted (peers must accept type 0).
type Writer struct {
	w         io.Writer
	chunkSize uint32
	bufs      *pool.BufferPool
}

// NewWriter creates a writer with the protocol-default 128-byte chunk size.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:         w,
		chunkSize: DefaultChunkSize,
		bufs:      pool.New(4 * 1024),
	}
}

// SetChunkSize applies a new outbound chunk size. The caller must have
// announced it to the peer with a Set Chunk Size message first.
func (w *Writer) SetChunkSize(size uint32) {
	if size > 0 {
		w.chunkSize = size
	}
}

// ChunkSize reports the current outbound chunk size.
func (w *Writer) ChunkSize() uint32 { return w.chunkSize }

// WriteMessage fragments msg and writes the whole frame in one transport
// write, so chunks of one message are never torn apart by another writer.
func (w *Writer) WriteMessage(msg *Message) error {
	buf := w.bufs.Get()
	defer w.bufs.Put(buf)

	ts := msg.Timestamp
	field := ts
	// A value of exactly 0xFFFFFF must also go through the extended word:
	// the saturated field is what tells the reader one follows.
	extended := ts >= extendedMarker
	if extended {
		field = extendedMarker
	}

	if err := writeBasicHeader(buf, 0, msg.CSID); err != nil {
		return err
	}
	var mh [11]byte
	wire.PutU24BE(mh[0:3], field)
	wire.PutU24BE(mh[3:6], uint32(len(msg.Payload)))
	mh[6] = msg.TypeID
	mh[7] = byte(msg.StreamID)
	mh[8] = byte(msg.StreamID >> 8)
	mh[9] = byte(msg.StreamID >> 16)
	mh[10] = byte(msg.StreamID >> 24)
	buf.Write(mh[:])
	if extended {
		_ = wire.WriteU32BE(buf, ts)
	}

	payload := msg.Payload
	for {
		n := uint32(len(payload))
		if n > w.chunkSize {
			n = w.chunkSize
		}
		buf.Write(payload[:n])
		payload = payload[n:]
		if len(payload) == 0 {
			break
		}
		if err := writeBasicHeader(buf, 3, msg.CSID); err != nil {
			return err
		}
		if extended {
			_ = wire.WriteU32BE(buf, ts)
		}
	}

	_, err := w.w.Write(buf.Bytes())
	return err
}
