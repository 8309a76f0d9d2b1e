// Package netconn ties the protocol layers together: it runs the handshake,
// issues the connect command, and dispatches inbound messages to the control,
// transaction and shared-object paths. The orchestrator is synchronous: one
// ProcessMessages call handles at most one logical message.
package netconn

import (
	"errors"
	"fmt"

	"github.com/mx4242/go-flash-rtmp/internal/logger"
	"github.com/mx4242/go-flash-rtmp/internal/metrics"
	"github.com/mx4242/go-flash-rtmp/internal/rtmp/chunk"
	"github.com/mx4242/go-flash-rtmp/internal/rtmp/command"
	"github.com/mx4242/go-flash-rtmp/internal/rtmp/handshake"
	"github.com/mx4242/go-flash-rtmp/internal/rtmp/message"
	"github.com/mx4242/go-flash-rtmp/internal/rtmp/sharedobject"
	"github.com/mx4242/go-flash-rtmp/internal/rtmp/transaction"
	"github.com/mx4242/go-flash-rtmp/internal/transport"
	"github.com/mx4242/go-flash-rtmp/internal/validator"
)

var (
	ErrNotConnected     = errors.New("netconn: not connected")
	ErrAlreadyConnected = errors.New("netconn: already connected")
)

// maxMirroredChunkSize caps how far we follow a peer's Set Chunk Size.
// Larger announcements are clamped, never silently truncated.
const maxMirroredChunkSize = 65536

// Options tunes a NetConnection. The zero value works.
type Options struct {
	Logger *logger.Logger

	// Identity fields for the connect command object.
	FlashVer       string
	SwfURL         string
	PageURL        string
	ObjectEncoding ObjectEncoding

	// ChunkSize above 128 is announced to the server right after the
	// handshake and applied to outbound fragmentation.
	ChunkSize uint32

	// MaxMessageSize overrides the inbound reassembly guard.
	MaxMessageSize uint32

	// Handshake pins clock and entropy; tests use it.
	Handshake *handshake.Options

	// OnCommand receives server-initiated commands (onStatus and friends).
	// Responses to our own calls never land here.
	OnCommand func(*command.Command)
}

// NetConnection is an RTMP client session over one transport.
// Single-threaded: progress happens only inside Connect, ProcessMessages and
// the explicit send calls.
type NetConnection struct {
	t    transport.Transport
	log  *logger.Logger
	opts Options

	r *chunk.Reader
	w *chunk.Writer

	ctx       *sessionContext
	connected bool
}

// New creates a NetConnection over a transport.
func New(t transport.Transport, opts Options) *NetConnection {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &NetConnection{
		t:    t,
		log:  log.With("component", "netconn"),
		opts: opts,
		ctx:  newSessionContext(),
	}
}

// Connect dials the server named by tcURL, runs the handshake and sends the
// connect command. The callback fires from ProcessMessages when the server's
// _result or _error arrives.
func (nc *NetConnection) Connect(tcURL string, cb transaction.Callback) error {
	if nc.connected {
		return ErrAlreadyConnected
	}

	u, err := validator.ParseTcURL(tcURL)
	if err != nil {
		return err
	}

	if err := nc.t.Connect(u.Host, u.Port); err != nil {
		return err
	}

	if _, err := handshake.New(nc.opts.Handshake).Do(nc.t); err != nil {
		return err
	}

	nc.r = chunk.NewReader(nc.t)
	nc.w = chunk.NewWriter(nc.t)
	if nc.opts.MaxMessageSize > 0 {
		nc.r.SetMaxMessageSize(nc.opts.MaxMessageSize)
	}
	nc.connected = true

	if nc.opts.ChunkSize > chunk.DefaultChunkSize {
		if err := nc.send(message.TypeSetChunkSize, 0, (&message.SetChunkSize{Size: nc.opts.ChunkSize}).Encode()); err != nil {
			return err
		}
		nc.w.SetChunkSize(nc.opts.ChunkSize)
	}

	flashVer := nc.opts.FlashVer
	if flashVer == "" {
		flashVer = DefaultFlashVer
	}
	nc.ctx.connArgs = &ConnectionArgs{
		App:            u.App,
		FlashVer:       flashVer,
		SwfURL:         nc.opts.SwfURL,
		TcURL:          u.FullURL,
		AudioCodecs:    DefaultAudioCodecs,
		VideoCodecs:    DefaultVideoCodecs,
		VideoFunction:  DefaultVideoFunction,
		PageURL:        nc.opts.PageURL,
		ObjectEncoding: nc.opts.ObjectEncoding,
	}

	if err := nc.sendConnectCommand(cb); err != nil {
		return err
	}

	metrics.RecordSessionStart()
	nc.log.Info("connected", "host", u.Host, "port", u.Port, "app", u.App)
	return nil
}

func (nc *NetConnection) sendConnectCommand(cb transaction.Callback) error {
	args := nc.ctx.connArgs
	txnID := nc.ctx.txns.Initialize(cb)

	cmd := &command.Command{
		Name:          command.NameConnect,
		TransactionID: txnID,
		Object: map[string]interface{}{
			"videoCodecs":    float64(args.VideoCodecs),
			"audioCodecs":    float64(args.AudioCodecs),
			"flashVer":       args.FlashVer,
			"app":            args.App,
			"tcUrl":          args.TcURL,
			"videoFunction":  float64(args.VideoFunction),
			"capabilities":   DefaultCapabilities,
			"pageUrl":        args.PageURL,
			"fpad":           args.Fpad,
			"swfUrl":         args.SwfURL,
			"objectEncoding": float64(args.ObjectEncoding),
		},
		Args: args.AdditionalArgs,
	}
	payload, err := command.Encode(cmd)
	if err != nil {
		return err
	}
	return nc.send(message.TypeCommandAMF0, 0, payload)
}

// Call issues an AMF command and registers cb for its response.
func (nc *NetConnection) Call(name string, object interface{}, args []interface{}, cb transaction.Callback) error {
	if !nc.connected {
		return ErrNotConnected
	}
	payload, err := command.Encode(&command.Command{
		Name:          name,
		TransactionID: nc.ctx.txns.Initialize(cb),
		Object:        object,
		Args:          args,
	})
	if err != nil {
		return err
	}
	return nc.send(message.TypeCommandAMF0, 0, payload)
}

// RegisterSharedObject queues the Use event and adds the object to the
// session registry without transmitting anything yet. SendSharedObject
// flushes the opening batch together with any mutations queued since.
func (nc *NetConnection) RegisterSharedObject(so *sharedobject.SharedObject) {
	so.SetLogger(nc.log)
	so.QueueUse()
	nc.ctx.addSharedObject(so)
}

// ConnectSharedObject registers the object and transmits its opening batch.
func (nc *NetConnection) ConnectSharedObject(so *sharedobject.SharedObject) error {
	if !nc.connected {
		return ErrNotConnected
	}
	nc.RegisterSharedObject(so)
	return nc.SendSharedObject(so.Name())
}

// SharedObject returns a registered shared object by name.
func (nc *NetConnection) SharedObject(name string) (*sharedobject.SharedObject, error) {
	return nc.ctx.sharedObject(name)
}

// HasSharedObject reports whether a name is in the session registry.
func (nc *NetConnection) HasSharedObject(name string) bool {
	return nc.ctx.hasSharedObject(name)
}

// ReleaseSharedObject queues a Release event, transmits it and drops the
// object from the registry. Later server updates for the name are ignored.
func (nc *NetConnection) ReleaseSharedObject(name string) error {
	if !nc.connected {
		return ErrNotConnected
	}
	so, err := nc.ctx.sharedObject(name)
	if err != nil {
		return err
	}
	so.QueueRelease()
	if err := nc.SendSharedObject(name); err != nil {
		return err
	}
	nc.ctx.removeSharedObject(name)
	return nil
}

// SendSharedObject writes the pending event batch of a named object. On a
// successful write the object flips to FLUSHED and the queue is cleared; on
// failure the queue stays so the caller may retry.
func (nc *NetConnection) SendSharedObject(name string) error {
	if !nc.connected {
		return ErrNotConnected
	}
	so, err := nc.ctx.sharedObject(name)
	if err != nil {
		return err
	}

	version, events := so.PendingSnapshot()
	payload, err := sharedobject.Encode(&sharedobject.Payload{
		Name:       so.Name(),
		Version:    version,
		Persistent: so.Persistent(),
		Events:     events,
	}, true)
	if err != nil {
		return err
	}
	if err := nc.send(message.TypeSharedObjectAMF3, 0, payload); err != nil {
		return err
	}
	so.MarkFlushed()
	return nil
}

// FlushSharedObject retransmits a named object's pending mutations.
func (nc *NetConnection) FlushSharedObject(name string) error {
	return nc.SendSharedObject(name)
}

// ProcessMessages reads and dispatches exactly one logical message. I/O and
// framing errors are fatal for the session; application-level errors route
// through callbacks and logs.
func (nc *NetConnection) ProcessMessages() error {
	if !nc.connected {
		return ErrNotConnected
	}

	msg, err := nc.r.ReadMessage()
	if err != nil {
		metrics.RecordProtocolError("framing")
		return err
	}
	metrics.RecordMessage("in", message.TypeName(msg.TypeID))

	if err := nc.dispatch(msg); err != nil {
		return err
	}
	return nc.maybeAcknowledge()
}

func (nc *NetConnection) dispatch(msg *chunk.Message) error {
	switch msg.TypeID {
	case message.TypeSetChunkSize:
		return nc.handleSetChunkSize(msg.Payload)

	case message.TypeAbortMessage:
		ab, err := message.DecodeAbortMessage(msg.Payload)
		if err != nil {
			return err
		}
		nc.r.Abort(ab.CSID)
		nc.log.Debug("aborted chunk stream", "csid", ab.CSID)
		return nil

	case message.TypeAcknowledgement:
		ack, err := message.DecodeAcknowledgement(msg.Payload)
		if err != nil {
			return err
		}
		nc.ctx.peerAcked = ack.SequenceNumber
		return nil

	case message.TypeUserControl:
		return nc.handleUserControl(msg.Payload)

	case message.TypeWindowAckSize:
		ws, err := message.DecodeWindowAckSize(msg.Payload)
		if err != nil {
			return err
		}
		nc.ctx.windowAckSize = ws.Size
		nc.log.Debug("window acknowledgement size set", "size", ws.Size)
		return nil

	case message.TypeSetPeerBandwidth:
		return nc.handleSetPeerBandwidth(msg.Payload)

	case message.TypeCommandAMF0:
		return nc.handleCommand(msg.Payload)

	case message.TypeCommandAMF3:
		payload, err := stripAMF3Discriminator(msg.Payload)
		if err != nil {
			return err
		}
		return nc.handleCommand(payload)

	case message.TypeSharedObjectAMF0:
		return nc.handleSharedObject(msg.Payload, false)

	case message.TypeSharedObjectAMF3:
		return nc.handleSharedObject(msg.Payload, true)

	case message.TypeAudio, message.TypeVideo, message.TypeDataAMF0,
		message.TypeDataAMF3, message.TypeAggregate:
		// No media pipeline behind this client; drop with a trace.
		nc.log.Debug("dropping unhandled message", "type", message.TypeName(msg.TypeID), "len", len(msg.Payload))
		return nil

	default:
		metrics.RecordProtocolError("unknown_type")
		return fmt.Errorf("netconn: %w: %d", message.ErrUnknownType, msg.TypeID)
	}
}

func (nc *NetConnection) handleSetChunkSize(payload []byte) error {
	sc, err := message.DecodeSetChunkSize(payload)
	if err != nil {
		metrics.RecordProtocolError("set_chunk_size")
		return err
	}
	size := sc.Size
	if size > maxMirroredChunkSize {
		nc.log.Warn("clamping peer chunk size", "announced", size, "clamped", uint32(maxMirroredChunkSize))
		size = maxMirroredChunkSize
	}
	// One chunk size drives both directions, matching how Flash Media
	// Server sessions negotiate it.
	nc.r.SetChunkSize(size)
	nc.w.SetChunkSize(size)
	nc.log.Debug("chunk size updated", "size", size)
	return nil
}

func (nc *NetConnection) handleSetPeerBandwidth(payload []byte) error {
	pb, err := message.DecodeSetPeerBandwidth(payload)
	if err != nil {
		return err
	}
	nc.ctx.peerBandwidth = pb.Size
	nc.ctx.peerBandwidthLimit = pb.LimitType

	// Answer with a Window Acknowledgement Size only when the window
	// actually changed from the last one we announced.
	if pb.Size != nc.ctx.lastWindowAnnounce {
		if err := nc.send(message.TypeWindowAckSize, 0, (&message.WindowAckSize{Size: pb.Size}).Encode()); err != nil {
			return err
		}
		nc.ctx.lastWindowAnnounce = pb.Size
	}
	return nil
}

func (nc *NetConnection) handleUserControl(payload []byte) error {
	uc, err := message.DecodeUserControl(payload)
	if err != nil {
		if errors.Is(err, message.ErrUnknownEvent) {
			nc.log.Warn("ignoring unknown user control event", "event", uc.Event)
			return nil
		}
		return err
	}

	switch uc.Event {
	case message.EventPingRequest:
		// Reply before any further inbound message is consumed.
		if err := nc.send(message.TypeUserControl, 0, message.NewPingResponse(uc.Timestamp).Encode()); err != nil {
			return err
		}
		nc.ctx.lastPingTimestamp = uc.Timestamp
		metrics.RecordPingAnswered()
	default:
		nc.log.Debug("user control event", "event", uc.EventName(), "stream_id", uc.StreamID)
	}
	return nil
}

func (nc *NetConnection) handleCommand(payload []byte) error {
	cmd, err := command.Decode(payload)
	if err != nil {
		metrics.RecordProtocolError("amf_command")
		return err
	}

	if cmd.IsResponse() {
		outcome := transaction.Result
		if cmd.Name == command.NameError {
			outcome = transaction.Error
		}
		if err := nc.ctx.txns.Finalize(cmd.TransactionID, outcome, cmd.Object, cmd.Args); err != nil {
			// A response for an id we never issued is a peer bug, not a
			// reason to tear the session down.
			nc.log.Warn("response for unknown transaction", "id", cmd.TransactionID, "name", cmd.Name)
			metrics.RecordTransaction("orphan")
			return nil
		}
		metrics.RecordTransaction(outcome.String())
		return nil
	}

	if nc.opts.OnCommand != nil {
		nc.opts.OnCommand(cmd)
		return nil
	}
	nc.log.Debug("unhandled server command", "name", cmd.Name, "txn", cmd.TransactionID)
	return nil
}

func (nc *NetConnection) handleSharedObject(payload []byte, amf3 bool) error {
	p, err := sharedobject.Decode(payload, amf3)
	if err != nil {
		metrics.RecordProtocolError("shared_object")
		return err
	}
	so, err := nc.ctx.sharedObject(p.Name)
	if err != nil {
		nc.log.Warn("update for unregistered shared object", "name", p.Name)
		return nil
	}
	so.ApplyEvents(p.Version, p.Events)
	return nil
}

// maybeAcknowledge emits an Acknowledgement once the bytes received since the
// last one reach the announced window size.
func (nc *NetConnection) maybeAcknowledge() error {
	window := nc.ctx.windowAckSize
	if window == 0 {
		return nil
	}
	received := nc.t.BytesReceived()
	if received-nc.ctx.lastAckAt < uint64(window) {
		return nil
	}
	if err := nc.send(message.TypeAcknowledgement, 0, (&message.Acknowledgement{SequenceNumber: uint32(received)}).Encode()); err != nil {
		return err
	}
	nc.ctx.lastAckAt = received
	metrics.RecordAcknowledgement()
	return nil
}

func (nc *NetConnection) send(typeID uint8, streamID uint32, payload []byte) error {
	err := nc.w.WriteMessage(&chunk.Message{
		TypeID:   typeID,
		StreamID: streamID,
		CSID:     message.OutboundCSID(typeID),
		Payload:  payload,
	})
	if err != nil {
		return err
	}
	metrics.RecordMessage("out", message.TypeName(typeID))
	return nil
}

// Disconnect aborts any partially received messages and closes the
// transport. In-flight transactions are abandoned; their callbacks never
// fire.
func (nc *NetConnection) Disconnect() error {
	if !nc.connected {
		return ErrNotConnected
	}
	for _, csid := range nc.r.PartialCSIDs() {
		if err := nc.send(message.TypeAbortMessage, 0, (&message.AbortMessage{CSID: csid}).Encode()); err != nil {
			nc.log.Warn("abort on disconnect failed", "csid", csid, "err", err)
			break
		}
	}
	nc.ctx.txns.Abandon()
	nc.connected = false
	metrics.RecordSessionEnd()
	return nc.t.Disconnect()
}

func stripAMF3Discriminator(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, errors.New("netconn: empty AMF3 payload")
	}
	if payload[0] != 0x00 {
		return nil, fmt.Errorf("netconn: unsupported AMF3 payload discriminator 0x%02x", payload[0])
	}
	return payload[1:], nil
}
