package openpayu

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker
type CircuitState int

const (
	// StateClosed - documents flow to the service normally
	StateClosed CircuitState = iota
	// StateOpen - sends fail immediately without touching the network
	StateOpen
	// StateHalfOpen - one probe is let through to test the service
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the breaker rejects a send
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures circuit breaker behavior
type CircuitBreakerConfig struct {
	// Consecutive transport failures before the circuit opens
	MaxFailures uint32
	// How long the circuit stays open before a probe is allowed
	Timeout time.Duration
}

// DefaultCircuitBreakerConfig returns the defaults used by NewTransport
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
	}
}

// CircuitBreaker stops sending documents to a service that keeps failing at
// the transport level. It never retries: a rejected or failed send is returned
// to the caller as is.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     CircuitState
	failures  uint32
	probing   bool
	changedAt time.Time
	config    CircuitBreakerConfig
	now       func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		state:     StateClosed,
		changedAt: time.Now(),
		config:    config,
		now:       time.Now,
	}
}

// Call runs fn unless the circuit is open. countsAsFailure decides which
// errors trip the breaker; nil means every error does.
func (cb *CircuitBreaker) Call(fn func() error, countsAsFailure func(error) bool) error {
	if err := cb.before(); err != nil {
		return err
	}

	err := fn()

	failed := err != nil
	if failed && countsAsFailure != nil {
		failed = countsAsFailure(err)
	}
	cb.after(failed)

	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.changedAt) < cb.config.Timeout {
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
		cb.probing = true
		return nil
	case StateHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) after(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.probing = false
		if failed {
			cb.setState(StateOpen)
		} else {
			cb.setState(StateClosed)
		}
		return
	}

	if !failed {
		cb.failures = 0
		return
	}

	cb.failures++
	if cb.state == StateClosed && cb.failures >= cb.config.MaxFailures {
		cb.setState(StateOpen)
	}
}

func (cb *CircuitBreaker) setState(state CircuitState) {
	if cb.state == state {
		return
	}
	cb.state = state
	cb.changedAt = cb.now()
	cb.failures = 0
}

// State returns the current circuit state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the consecutive failure count
func (cb *CircuitBreaker) Failures() uint32 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}
