package pool

import (
	"bytes"
	"sync"
)

// maxRetainedCap keeps pathological one-off messages from pinning large
// buffers in the pool forever.
const maxRetainedCap = 1 << 20

// BufferPool provides reusable byte buffers for chunk and payload assembly.
type BufferPool struct {
	pool sync.Pool
}

// New creates a buffer pool whose buffers start at the given capacity.
func New(size int) *BufferPool {
	if size <= 0 {
		size = 4 * 1024
	}
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, size))
			},
		},
	}
}

// Get retrieves an empty buffer from the pool.
func (bp *BufferPool) Get() *bytes.Buffer {
	buf, ok := bp.pool.Get().(*bytes.Buffer)
	if !ok || buf == nil {
		buf = new(bytes.Buffer)
	}
	buf.Reset()
	return buf
}

// Put returns a buffer to the pool.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxRetainedCap {
		return
	}
	bp.pool.Put(buf)
}
