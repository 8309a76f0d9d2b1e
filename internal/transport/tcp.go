package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/mx4242/go-flash-rtmp/internal/metrics"
	"github.com/mx4242/go-flash-rtmp/internal/retry"
)

// DefaultDialTimeout bounds a single connection attempt.
const DefaultDialTimeout = 10 * time.Second

// Options tunes the TCP adapter. The zero value is usable.
type Options struct {
	DialTimeout time.Duration
	Retry       retry.Config

	// DialsPerSecond paces reconnect attempts so a flapping server is not
	// hammered. 0 disables pacing.
	DialsPerSecond float64
	DialBurst      int
}

// TCP is the production Transport over a TCP stream.
// Not safe for concurrent use; the protocol layer is single-threaded.
type TCP struct {
	conn    net.Conn
	opts    Options
	limiter *rate.Limiter

	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
}

// NewTCP creates a disconnected TCP transport.
func NewTCP(opts Options) *TCP {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.DefaultConfig()
	}
	t := &TCP{opts: opts}
	if opts.DialsPerSecond > 0 {
		burst := opts.DialBurst
		if burst <= 0 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(opts.DialsPerSecond), burst)
	}
	return t
}

// FromConn wraps an already-established connection. Used by tests (net.Pipe)
// and by callers that manage dialing themselves.
func FromConn(conn net.Conn) *TCP {
	return &TCP{conn: conn, opts: Options{DialTimeout: DefaultDialTimeout}}
}

func (t *TCP) Connect(host string, port int) error {
	if t.conn != nil {
		return ErrAlreadyConnected
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	if t.limiter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), t.opts.DialTimeout)
		defer cancel()
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("transport: dial pacing: %w", err)
		}
	}

	err := retry.Do(context.Background(), t.opts.Retry, func() error {
		conn, err := net.DialTimeout("tcp", addr, t.opts.DialTimeout)
		if err != nil {
			metrics.RecordDialError()
			return err
		}
		t.conn = conn
		return nil
	})
	if err != nil {
		return fmt.Errorf("transport: connect %s: %w", addr, err)
	}
	return nil
}

func (t *TCP) Disconnect() error {
	if t.conn == nil {
		return ErrNotConnected
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// Read implements io.Reader, sharing the receive accounting with ReadFull.
func (t *TCP) Read(p []byte) (int, error) {
	if t.conn == nil {
		return 0, ErrNotConnected
	}
	n, err := t.conn.Read(p)
	if n > 0 {
		t.bytesIn.Add(uint64(n))
		metrics.RecordBytes("in", int64(n))
	}
	return n, err
}

// ReadFull reads exactly n bytes, retrying short reads.
func (t *TCP) ReadFull(n int) ([]byte, error) {
	if t.conn == nil {
		return nil, ErrNotConnected
	}
	buf := make([]byte, n)
	read := 0
	for read < n {
		m, err := t.conn.Read(buf[read:])
		if m > 0 {
			read += m
			t.bytesIn.Add(uint64(m))
			metrics.RecordBytes("in", int64(m))
		}
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// WriteAll writes every byte of p or fails.
func (t *TCP) WriteAll(p []byte) error {
	if t.conn == nil {
		return ErrNotConnected
	}
	for len(p) > 0 {
		n, err := t.conn.Write(p)
		if n > 0 {
			t.bytesOut.Add(uint64(n))
			metrics.RecordBytes("out", int64(n))
			p = p[n:]
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *TCP) BytesReceived() uint64 { return t.bytesIn.Load() }
func (t *TCP) BytesSent() uint64     { return t.bytesOut.Load() }
