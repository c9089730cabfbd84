// Package resilience provides reliability patterns for upstream API calls.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type state int

const (
	closed state = iota
	open
	halfOpen
)

// Breaker guards calls to an upstream. Consecutive failures open the
// circuit; after timeout a single probe is let through, and its outcome
// decides between closing again and re-opening.
type Breaker struct {
	maxFailures int
	timeout     time.Duration
	now         func() time.Time // for testing

	mu       sync.Mutex
	state    state
	failures int
	openedAt time.Time
}

// NewBreaker creates a breaker that opens after maxFailures consecutive
// failures and stays open for timeout before probing.
func NewBreaker(maxFailures int, timeout time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Execute runs fn unless the circuit is open.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}
	err := fn()
	b.record(err)
	return err
}

// Healthy reports whether the circuit is currently accepting calls.
func (b *Breaker) Healthy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state != open || b.cooledDown()
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == open {
		if !b.cooledDown() {
			return false
		}
		b.state = halfOpen
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.state = closed
		return
	}

	b.failures++
	if b.state == halfOpen || b.failures >= b.maxFailures {
		b.state = open
		b.openedAt = b.now()
	}
}

// cooledDown must be called with b.mu held.
func (b *Breaker) cooledDown() bool {
	return b.now().Sub(b.openedAt) >= b.timeout
}
