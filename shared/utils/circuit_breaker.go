package utils

import (
	"errors"
	"sync"
	"time"
)

// CircuitState is the breaker's position.
type CircuitState int

const (
	// CircuitClosed lets calls through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls until the reset timeout elapses.
	CircuitOpen
	// CircuitHalfOpen lets a limited number of trial calls through.
	CircuitHalfOpen
)

// String names the state for logs.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned while the breaker is rejecting calls, either
// because it is open or because the half-open allowance is used up.
var ErrCircuitOpen = errors.New("serviço de identidade temporariamente indisponível")

// CircuitBreaker guards calls to the identity backend. After maxFailures
// consecutive failures it opens for resetTimeout, then admits up to
// halfOpenMax trial calls; one success closes it, one failure reopens it.
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	halfOpenMax  int

	mu          sync.Mutex
	state       CircuitState
	failures    int
	lastFailure time.Time
	trials      int
}

// NewCircuitBreaker builds a closed breaker admitting one half-open trial.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		halfOpenMax:  1,
	}
}

// NewCircuitBreakerWithTrials builds a breaker admitting halfOpenMax
// concurrent trial calls while half-open.
func NewCircuitBreakerWithTrials(maxFailures int, resetTimeout time.Duration, halfOpenMax int) *CircuitBreaker {
	cb := NewCircuitBreaker(maxFailures, resetTimeout)
	if halfOpenMax > 0 {
		cb.halfOpenMax = halfOpenMax
	}
	return cb
}

// Call runs fn under the breaker. The error from fn is returned as-is so
// callers keep their own error mapping; ErrCircuitOpen means fn never ran.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	return err
}

// admit decides whether a call may proceed right now.
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen {
		if time.Since(cb.lastFailure) <= cb.resetTimeout {
			return ErrCircuitOpen
		}
		cb.state = CircuitHalfOpen
		cb.trials = 0
	}

	if cb.state == CircuitHalfOpen {
		if cb.trials >= cb.halfOpenMax {
			return ErrCircuitOpen
		}
		cb.trials++
	}
	return nil
}

// record folds a call outcome into the breaker state.
func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.failures = 0
		if cb.state == CircuitHalfOpen {
			cb.state = CircuitClosed
			cb.trials = 0
		}
		return
	}

	cb.failures++
	cb.lastFailure = time.Now()
	if cb.state == CircuitHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = CircuitOpen
	}
}

// State reports the current position.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
