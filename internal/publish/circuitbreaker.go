package publish

import (
	"errors"
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	StateClosed   State = 0 // publishes flow to Redis
	StateOpen     State = 1 // publishes rejected until the reset window passes
	StateHalfOpen State = 2 // one probe publish in flight decides open vs closed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned when the breaker rejects a publish without
// attempting it.
var ErrCircuitOpen = errors.New("publish rejected: circuit open")

// CircuitBreaker protects the pipeline from a failing Redis. It trips open
// after a run of consecutive publish failures; while open every publish is
// rejected immediately so queue drainage stays cheap. Once the reset window
// passes, exactly one probe publish is let through: its outcome either closes
// the breaker or re-opens it for another window.
type CircuitBreaker struct {
	tripAfter int
	resetWait time.Duration

	mu       sync.Mutex
	state    State
	streak   int       // consecutive failures while closed
	openedAt time.Time // when the breaker last tripped
	probing  bool      // a half-open probe is in flight

	now func() time.Time

	// OnStateChange observes transitions (optional).
	OnStateChange func(from, to State)
}

// NewCircuitBreaker returns a closed breaker that trips after tripAfter
// consecutive failures and probes again resetWait after tripping.
func NewCircuitBreaker(tripAfter int, resetWait time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		tripAfter: tripAfter,
		resetWait: resetWait,
		now:       time.Now,
	}
}

// Execute attempts one publish through the breaker. When the breaker refuses,
// fn is never invoked and ErrCircuitOpen comes back; otherwise fn's own error
// is returned and folded into the breaker state.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.admit() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.settle(err)
	return err
}

// admit decides whether a publish may proceed, moving open→half-open when the
// reset window has elapsed. In half-open only the single probe gets through.
func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) <= cb.resetWait {
			return false
		}
		cb.shift(StateHalfOpen)
		cb.probing = true
		return true
	default: // StateHalfOpen
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	}
}

// settle folds a publish outcome into the breaker state.
func (cb *CircuitBreaker) settle(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.probing = false
		if err != nil {
			cb.openedAt = cb.now()
			cb.shift(StateOpen)
		} else {
			cb.shift(StateClosed)
		}
		return
	}

	if err == nil {
		cb.streak = 0
		return
	}
	cb.streak++
	if cb.streak >= cb.tripAfter {
		cb.openedAt = cb.now()
		cb.shift(StateOpen)
	}
}

// CurrentState returns the breaker position.
func (cb *CircuitBreaker) CurrentState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// shift transitions state and notifies. Caller holds cb.mu.
func (cb *CircuitBreaker) shift(to State) {
	from := cb.state
	cb.state = to
	if to == StateClosed {
		cb.streak = 0
	}
	if cb.OnStateChange != nil {
		cb.OnStateChange(from, to)
	}
}
