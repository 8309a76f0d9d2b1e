// Package handshake implements the client side of the plain RTMP version-3
// handshake: C0+C1 out, S0+S1+S2 in, C2 out.
package handshake

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mx4242/go-flash-rtmp/internal/transport"
)

const (
	// ProtocolVersion is the only version this client speaks.
	ProtocolVersion = 3

	// PacketSize is the size of C1, C2, S1 and S2.
	PacketSize = 1536

	// RandomSize is the random payload inside C1/S1, echoed back in S2/C2.
	RandomSize = 1528
)

var (
	ErrNoData       = errors.New("handshake: no data from server")
	ErrEchoMismatch = errors.New("handshake: random echo mismatch")
	ErrAlreadyDone  = errors.New("handshake: already done")
)

// VersionError reports a server that answered with a version other than 3.
type VersionError struct {
	Actual uint8
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("handshake: server version %d, want %d", e.Actual, ProtocolVersion)
}

// Options allows tests to pin the clock and entropy source.
type Options struct {
	Now  func() uint32
	Rand io.Reader
}

// Result carries what the handshake learned about the peer.
type Result struct {
	// ServerTime is the epoch the server declared in S1.
	ServerTime uint32
}

// Handshake drives one C0/C1/C2 exchange. A Handshake is single-use.
type Handshake struct {
	opts Options
	done bool
}

// New creates a handshake; opts may be nil.
func New(opts *Options) *Handshake {
	h := &Handshake{}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Now == nil {
		// The session's timestamp origin is relative, 0 works as an epoch.
		h.opts.Now = func() uint32 { return 0 }
	}
	if h.opts.Rand == nil {
		h.opts.Rand = rand.Reader
	}
	return h
}

// Do runs the handshake over t. The transport must already be connected.
func (h *Handshake) Do(t transport.Transport) (*Result, error) {
	if h.done {
		return nil, ErrAlreadyDone
	}

	// C0 + C1 in one write: version byte, then time | zero4 | random.
	c0c1 := make([]byte, 1+PacketSize)
	c0c1[0] = ProtocolVersion
	binary.BigEndian.PutUint32(c0c1[1:5], h.opts.Now())
	if _, err := io.ReadFull(h.opts.Rand, c0c1[9:]); err != nil {
		return nil, fmt.Errorf("handshake: generate random: %w", err)
	}
	c1Random := c0c1[9:]

	if err := t.WriteAll(c0c1); err != nil {
		return nil, fmt.Errorf("handshake: write C0+C1: %w", err)
	}

	// S0 + S1 + S2 arrive back to back.
	resp, err := t.ReadFull(1 + 2*PacketSize)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("handshake: read S0+S1+S2: %w", err)
	}

	if resp[0] != ProtocolVersion {
		return nil, &VersionError{Actual: resp[0]}
	}

	s1 := resp[1 : 1+PacketSize]
	s2 := resp[1+PacketSize:]

	if !bytes.Equal(s2[8:], c1Random) {
		return nil, ErrEchoMismatch
	}

	// C2 mirrors S1: time, time2 = 0, random echo.
	c2 := make([]byte, PacketSize)
	copy(c2[:4], s1[:4])
	copy(c2[8:], s1[8:])
	if err := t.WriteAll(c2); err != nil {
		return nil, fmt.Errorf("handshake: write C2: %w", err)
	}

	h.done = true
	return &Result{ServerTime: binary.BigEndian.Uint32(s1[:4])}, nil
}
