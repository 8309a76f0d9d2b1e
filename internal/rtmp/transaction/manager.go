// Package transaction correlates outbound AMF calls with their
// _result/_error responses by transaction id.
package transaction

import (
	"errors"
	"fmt"
)

// Outcome distinguishes _result from _error responses.
type Outcome int

const (
	Result Outcome = iota
	Error
)

func (o Outcome) String() string {
	if o == Error {
		return "error"
	}
	return "result"
}

// Callback receives the response's command object and optional arguments.
// Callbacks run on the read/dispatch path and must not block indefinitely.
type Callback func(outcome Outcome, object interface{}, args []interface{})

// ErrUnknownID marks a response for a transaction that was never opened or
// already completed. Protocol error, but not fatal for the session.
var ErrUnknownID = errors.New("transaction: unknown transaction id")

// Manager hands out ascending transaction ids and holds the pending
// callbacks. Ids start at 2: id 1 is reserved for connect by RTMP
// convention, and the counter increments before first use, so even the
// connect call gets an id above it. Ids are never reused within a session.
//
// The manager is owned by a single session and is not safe for concurrent
// use.
type Manager struct {
	lastID  uint32
	pending map[uint32]Callback
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		lastID:  1,
		pending: make(map[uint32]Callback),
	}
}

// Initialize registers a callback and returns the id the call must carry.
// A nil callback registers a fire-and-forget transaction.
func (m *Manager) Initialize(cb Callback) uint32 {
	if cb == nil {
		cb = func(Outcome, interface{}, []interface{}) {}
	}
	m.lastID++
	m.pending[m.lastID] = cb
	return m.lastID
}

// Finalize fires and removes the callback stored under id.
func (m *Manager) Finalize(id uint32, outcome Outcome, object interface{}, args []interface{}) error {
	cb, ok := m.pending[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	delete(m.pending, id)
	cb(outcome, object, args)
	return nil
}

// Pending reports how many calls still await a response.
func (m *Manager) Pending() int {
	return len(m.pending)
}

// Abandon drops every pending callback without firing it. Used when the
// session closes before responses arrive.
func (m *Manager) Abandon() {
	clear(m.pending)
}
