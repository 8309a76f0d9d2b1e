package sharedobject

import (
	"sync"

	"github.com/mx4242/go-flash-rtmp/internal/logger"
	"github.com/mx4242/go-flash-rtmp/internal/metrics"
)

// FlushState tracks whether client-originated events still await transmission.
type FlushState int

const (
	Flushed FlushState = iota
	Pending
)

// SharedObject is the engine-owned record for one remote shared object. The
// handle given to applications is simply a *SharedObject; all mutation goes
// through methods that hold the object's mutex. Lock order across the session
// is context first, shared object second, never the reverse.
type SharedObject struct {
	mu sync.Mutex

	name       string
	persistent bool
	version    uint32
	data       map[string]interface{}
	pending    []Event
	processed  []Event // observational inbound events (Status, Success, ...)
	flushState FlushState
	useSuccess bool

	log *logger.Logger
}

// New creates a detached shared object. It joins a session when the
// NetConnection registers it and sends its Use event.
func New(name string, persistent bool) *SharedObject {
	return &SharedObject{
		name:       name,
		persistent: persistent,
		data:       make(map[string]interface{}),
		log:        logger.Discard(),
	}
}

// SetLogger attaches a logger for unknown-event warnings.
func (so *SharedObject) SetLogger(log *logger.Logger) {
	so.mu.Lock()
	defer so.mu.Unlock()
	if log != nil {
		so.log = log.With("shared_object", so.name)
	}
}

func (so *SharedObject) Name() string { return so.name }

func (so *SharedObject) Persistent() bool { return so.persistent }

func (so *SharedObject) Version() uint32 {
	so.mu.Lock()
	defer so.mu.Unlock()
	return so.version
}

func (so *SharedObject) UseSuccess() bool {
	so.mu.Lock()
	defer so.mu.Unlock()
	return so.useSuccess
}

func (so *SharedObject) FlushState() FlushState {
	so.mu.Lock()
	defer so.mu.Unlock()
	return so.flushState
}

// QueueUse appends the Use event that opens the object on the server.
func (so *SharedObject) QueueUse() {
	so.mu.Lock()
	defer so.mu.Unlock()
	so.flushState = Pending
	so.pending = append(so.pending, Event{Type: EventUse})
}

// QueueRelease appends the Release event that detaches the object.
func (so *SharedObject) QueueRelease() {
	so.mu.Lock()
	defer so.mu.Unlock()
	so.flushState = Pending
	so.pending = append(so.pending, Event{Type: EventRelease})
}

// SetProperty writes the key locally and queues a RequestChange for the
// server. The local write is optimistic: the server's Change echo re-applies
// the same value.
func (so *SharedObject) SetProperty(key string, value interface{}) {
	so.mu.Lock()
	defer so.mu.Unlock()
	so.flushState = Pending
	so.pending = append(so.pending, Event{Type: EventRequestChange, Key: key, Value: value})
	so.data[key] = value
}

// RemoveProperty deletes the key locally and queues a RequestRemove.
func (so *SharedObject) RemoveProperty(key string) {
	so.mu.Lock()
	defer so.mu.Unlock()
	so.flushState = Pending
	so.pending = append(so.pending, Event{Type: EventRequestRemove, Key: key})
	delete(so.data, key)
}

// GetProperty reads a key from the local mirror.
func (so *SharedObject) GetProperty(key string) (interface{}, bool) {
	so.mu.Lock()
	defer so.mu.Unlock()
	v, ok := so.data[key]
	return v, ok
}

// Clear empties the local mirror.
func (so *SharedObject) Clear() {
	so.mu.Lock()
	defer so.mu.Unlock()
	so.data = make(map[string]interface{})
}

// Data returns a copy of the local mirror.
func (so *SharedObject) Data() map[string]interface{} {
	so.mu.Lock()
	defer so.mu.Unlock()
	out := make(map[string]interface{}, len(so.data))
	for k, v := range so.data {
		out[k] = v
	}
	return out
}

// PendingSnapshot returns the queued client events for transmission. The
// queue is kept; MarkFlushed clears it after the write succeeded, so a failed
// flush can retry.
func (so *SharedObject) PendingSnapshot() (version uint32, events []Event) {
	so.mu.Lock()
	defer so.mu.Unlock()
	events = make([]Event, len(so.pending))
	copy(events, so.pending)
	return so.version, events
}

// MarkFlushed records a successful transmission of the pending batch.
func (so *SharedObject) MarkFlushed() {
	so.mu.Lock()
	defer so.mu.Unlock()
	metrics.RecordSharedObjectEvents("out", len(so.pending))
	so.pending = so.pending[:0]
	so.flushState = Flushed
}

// ProcessedLog returns the observational events received so far.
func (so *SharedObject) ProcessedLog() []Event {
	so.mu.Lock()
	defer so.mu.Unlock()
	out := make([]Event, len(so.processed))
	copy(out, so.processed)
	return out
}

// ApplyEvents applies one inbound event burst in wire order and adopts the
// server's version. Unknown tags are logged and skipped, never fatal.
func (so *SharedObject) ApplyEvents(version uint32, events []Event) {
	so.mu.Lock()
	defer so.mu.Unlock()

	for _, ev := range events {
		switch ev.Type {
		case EventChange:
			so.data[ev.Key] = ev.Value
		case EventUseSuccess:
			so.useSuccess = true
		case EventClear:
			so.data = make(map[string]interface{})
		case EventRemove:
			delete(so.data, ev.Key)
		case EventStatus, EventSuccess, EventRelease, EventSendMessage:
			so.processed = append(so.processed, ev)
		default:
			if !ev.Type.known() {
				so.log.Warn("ignoring unknown shared object event", "type", uint8(ev.Type))
			}
		}
	}

	so.version = version
	metrics.RecordSharedObjectEvents("in", len(events))
}
