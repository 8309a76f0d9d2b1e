package netconn

import (
	"fmt"
	"sync"

	"github.com/mx4242/go-flash-rtmp/internal/rtmp/sharedobject"
	"github.com/mx4242/go-flash-rtmp/internal/rtmp/transaction"
)

// ObjectEncoding selects the AMF flavor announced in the connect command.
type ObjectEncoding int

const (
	EncodingAMF0 ObjectEncoding = 0
	EncodingAMF3 ObjectEncoding = 3
)

// Connect command object defaults mirroring the Flash player values.
const (
	DefaultFlashVer      = "WIN 32,0,0,465"
	DefaultCapabilities  = 239.0
	DefaultVideoCodecs   = 252
	DefaultAudioCodecs   = 3575
	DefaultVideoFunction = 1
)

// ConnectionArgs captures what the connect command advertised to the server.
type ConnectionArgs struct {
	App            string
	FlashVer       string
	SwfURL         string
	TcURL          string
	Fpad           bool
	AudioCodecs    uint32
	VideoCodecs    uint32
	VideoFunction  uint32
	PageURL        string
	ObjectEncoding ObjectEncoding
	AdditionalArgs []interface{}
}

// sessionContext is the session-scoped state shared by the dispatch paths.
// Everything except the shared-object registry is touched only from the
// single-threaded protocol loop; the registry gets a mutex because
// applications hold shared-object handles concurrently. Lock order is
// context before shared object, never the reverse.
type sessionContext struct {
	mu            sync.Mutex
	sharedObjects map[string]*sharedobject.SharedObject

	txns     *transaction.Manager
	connArgs *ConnectionArgs

	windowAckSize      uint32 // 0 until the peer announces one
	lastWindowAnnounce uint32 // last window size we announced back
	peerBandwidth      uint32
	peerBandwidthLimit uint8
	peerAcked          uint32 // last sequence number the peer acknowledged
	lastAckAt          uint64 // transport receive count at our last ack
	lastPingTimestamp  uint32
}

func newSessionContext() *sessionContext {
	return &sessionContext{
		sharedObjects: make(map[string]*sharedobject.SharedObject),
		txns:          transaction.NewManager(),
	}
}

func (c *sessionContext) addSharedObject(so *sharedobject.SharedObject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sharedObjects[so.Name()] = so
}

func (c *sessionContext) sharedObject(name string) (*sharedobject.SharedObject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	so, ok := c.sharedObjects[name]
	if !ok {
		return nil, fmt.Errorf("netconn: shared object %q not registered", name)
	}
	return so, nil
}

func (c *sessionContext) hasSharedObject(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sharedObjects[name]
	return ok
}

func (c *sessionContext) removeSharedObject(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sharedObjects, name)
}
