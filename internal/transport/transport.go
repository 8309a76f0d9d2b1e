// Package transport provides the blocking byte-stream abstraction the RTMP
// layers run on. The protocol code never sees partial reads or writes: a
// Transport either returns exactly the requested bytes or fails.
package transport

import (
	"errors"
	"io"
)

var (
	ErrNotConnected     = errors.New("transport: not connected")
	ErrAlreadyConnected = errors.New("transport: already connected")
)

// Transport is an ordered, reliable byte stream. Implementations must retry
// short reads internally; a successful ReadFull returns exactly n bytes and a
// successful WriteAll has queued every byte.
//
// The io.Reader side exists so stream-oriented codecs can consume the
// transport directly; it shares the byte accounting with ReadFull.
type Transport interface {
	io.Reader

	Connect(host string, port int) error
	Disconnect() error

	ReadFull(n int) ([]byte, error)
	WriteAll(p []byte) error

	// BytesReceived and BytesSent report cumulative traffic over the
	// transport's lifetime; Connect and Disconnect do not reset them.
	// The session layer uses the receive counter to drive Window
	// Acknowledgement emission.
	BytesReceived() uint64
	BytesSent() uint64
}
