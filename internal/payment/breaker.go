package payment

import (
	"log"
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// BreakerSettings tunes the trip and recovery behavior.
type BreakerSettings struct {
	// WindowSize is the number of recent calls the failure rate is
	// computed over.
	WindowSize int
	// MinCalls must be observed in the window before the failure
	// rate is evaluated at all.
	MinCalls int
	// FailureThreshold trips the breaker when exceeded or met,
	// e.g. 0.5 for 50%.
	FailureThreshold float64
	// CoolDown is how long the breaker stays OPEN before allowing
	// half-open trials.
	CoolDown time.Duration
	// HalfOpenSuccesses is the number of consecutive trial
	// successes required to close again.
	HalfOpenSuccesses int
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		WindowSize:        10,
		MinCalls:          5,
		FailureThreshold:  0.5,
		CoolDown:          30 * time.Second,
		HalfOpenSuccesses: 2,
	}
}

// CircuitBreaker guards one gateway. All counters sit behind a single
// mutex: concurrent callers must observe one consistent trip/recovery
// view, so there is exactly one state object per gateway name,
// injected into the orchestrator at wiring time.
type CircuitBreaker struct {
	name     string
	settings BreakerSettings

	mu sync.Mutex
	// now is swappable for tests.
	now func() time.Time

	state State
	// window is a ring of recent call outcomes, true = failure.
	window  []bool
	windowN int // outcomes recorded, capped at len(window)
	windowI int // next write position

	openedAt       time.Time
	trialSuccesses int
	trialsInFlight int
}

func NewCircuitBreaker(name string, settings BreakerSettings) *CircuitBreaker {
	return &CircuitBreaker{
		name:     name,
		settings: settings,
		now:      time.Now,
		state:    StateClosed,
		window:   make([]bool, settings.WindowSize),
	}
}

// Allow reports whether a call may go through to the gateway right
// now. OPEN flips to HALF_OPEN here once the cool-down has elapsed.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.settings.CoolDown {
			return false
		}
		b.transition(StateHalfOpen)
		b.trialsInFlight = 1
		return true
	case StateHalfOpen:
		// Admit only as many trials as it would take to close.
		if b.trialSuccesses+b.trialsInFlight >= b.settings.HalfOpenSuccesses {
			return false
		}
		b.trialsInFlight++
		return true
	default:
		return false
	}
}

// RecordSuccess accounts a call that the gateway answered.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.record(false)
	case StateHalfOpen:
		if b.trialsInFlight > 0 {
			b.trialsInFlight--
		}
		b.trialSuccesses++
		if b.trialSuccesses >= b.settings.HalfOpenSuccesses {
			b.resetWindow()
			b.transition(StateClosed)
		}
	}
}

// RecordFailure accounts a transient failure (I/O error or timeout).
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.record(true)
		if b.windowN >= b.settings.MinCalls && b.failureRate() >= b.settings.FailureThreshold {
			b.trip()
		}
	case StateHalfOpen:
		// Any trial failure re-opens immediately.
		b.trip()
	}
}

func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *CircuitBreaker) record(failure bool) {
	b.window[b.windowI] = failure
	b.windowI = (b.windowI + 1) % len(b.window)
	if b.windowN < len(b.window) {
		b.windowN++
	}
}

func (b *CircuitBreaker) failureRate() float64 {
	failures := 0
	for i := 0; i < b.windowN; i++ {
		if b.window[i] {
			failures++
		}
	}
	return float64(failures) / float64(b.windowN)
}

func (b *CircuitBreaker) trip() {
	b.resetWindow()
	b.openedAt = b.now()
	b.transition(StateOpen)
}

func (b *CircuitBreaker) resetWindow() {
	b.window = make([]bool, b.settings.WindowSize)
	b.windowN = 0
	b.windowI = 0
	b.trialSuccesses = 0
	b.trialsInFlight = 0
}

func (b *CircuitBreaker) transition(target State) {
	if b.state == target {
		return
	}
	log.Printf("[Payment] Circuit breaker %s: %s -> %s", b.name, b.state, target)
	b.state = target
}
