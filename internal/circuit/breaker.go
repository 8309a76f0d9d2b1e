// Package circuit guards reconnect loops: after repeated session failures the
// breaker opens and rejects further attempts until a cooldown elapses.
package circuit

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	Closed   State = iota // normal operation
	Open                  // failing, reject attempts
	HalfOpen              // cooldown elapsed, probing
)

// ErrOpen is returned while the breaker refuses attempts.
var ErrOpen = errors.New("circuit breaker open")

// Breaker counts consecutive failures and trips after maxFailures. While open
// it rejects calls until resetTimeout has passed, then lets probes through;
// successThresh consecutive probe successes close it again.
type Breaker struct {
	mu            sync.Mutex
	state         State
	failures      int32
	successes     int32
	lastFail      time.Time
	maxFailures   int32
	resetTimeout  time.Duration
	successThresh int32
}

// New creates a circuit breaker.
func New(maxFailures int32, resetTimeout time.Duration, successThresh int32) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	if successThresh <= 0 {
		successThresh = 1
	}
	return &Breaker{
		maxFailures:   maxFailures,
		resetTimeout:  resetTimeout,
		successThresh: successThresh,
	}
}

// Call executes fn under breaker protection.
func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()
	if b.state == Open {
		if time.Since(b.lastFail) <= b.resetTimeout {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = HalfOpen
		b.failures = 0
		b.successes = 0
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.lastFail = time.Now()
		if b.state == HalfOpen || b.failures >= b.maxFailures {
			b.state = Open
		}
		return err
	}

	if b.state == HalfOpen {
		b.successes++
		if b.successes >= b.successThresh {
			b.state = Closed
			b.failures = 0
			b.successes = 0
		}
		return nil
	}
	b.failures = 0
	return nil
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.successes = 0
}
