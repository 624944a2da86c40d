package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker() *CircuitBreaker {
	return NewCircuitBreaker("test-gateway", BreakerSettings{
		WindowSize:        10,
		MinCalls:          5,
		FailureThreshold:  0.5,
		CoolDown:          30 * time.Second,
		HalfOpenSuccesses: 2,
	})
}

// ============================================
// Trip Tests
// ============================================

func TestBreaker_StartsClosed(t *testing.T) {
	b := newTestBreaker()

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_TripsAfterFiveConsecutiveFailures(t *testing.T) {
	b := newTestBreaker()

	for i := 0; i < 5; i++ {
		require.True(t, b.Allow(), "call %d should pass through", i+1)
		b.RecordFailure()
	}

	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow(), "call 6 must be short-circuited")
}

func TestBreaker_NoTripBelowMinCalls(t *testing.T) {
	b := newTestBreaker()

	// 4 failures, 100% rate, but below the minimum call count
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_NoTripBelowThreshold(t *testing.T) {
	b := newTestBreaker()

	// 4 failures out of 10 = 40%, under the 50% threshold
	for i := 0; i < 6; i++ {
		b.RecordSuccess()
	}
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_TripsAtThresholdOverMixedWindow(t *testing.T) {
	b := newTestBreaker()

	// 5 failures out of 10 = 50%, which meets the threshold
	for i := 0; i < 5; i++ {
		b.RecordSuccess()
	}
	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}

	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_SlidingWindowForgetsOldOutcomes(t *testing.T) {
	b := newTestBreaker()

	// 4 early failures scroll out of the 10-call window
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	for i := 0; i < 10; i++ {
		b.RecordSuccess()
	}
	b.RecordFailure()

	assert.Equal(t, StateClosed, b.State())
}

// ============================================
// Recovery Tests
// ============================================

func TestBreaker_CoolDownAdmitsHalfOpenTrial(t *testing.T) {
	b := newTestBreaker()
	now := time.Now()
	b.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	require.Equal(t, StateOpen, b.State())
	require.False(t, b.Allow())

	// Cool-down elapses
	b.now = func() time.Time { return now.Add(31 * time.Second) }

	assert.True(t, b.Allow(), "first call after cool-down is a half-open trial")
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_HalfOpenClosesAfterConsecutiveSuccesses(t *testing.T) {
	b := newTestBreaker()
	now := time.Now()
	b.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	b.now = func() time.Time { return now.Add(31 * time.Second) }

	require.True(t, b.Allow())
	b.RecordSuccess()
	require.Equal(t, StateHalfOpen, b.State())

	require.True(t, b.Allow())
	b.RecordSuccess()

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_HalfOpenReopensOnTrialFailure(t *testing.T) {
	b := newTestBreaker()
	now := time.Now()
	b.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	b.now = func() time.Time { return now.Add(31 * time.Second) }

	require.True(t, b.Allow())
	b.RecordFailure()

	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow(), "re-opened breaker starts a fresh cool-down")
}

func TestBreaker_HalfOpenLimitsTrialCalls(t *testing.T) {
	b := newTestBreaker()
	now := time.Now()
	b.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	b.now = func() time.Time { return now.Add(31 * time.Second) }

	// Two trials may be in flight (HalfOpenSuccesses = 2), no more
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
	assert.False(t, b.Allow(), "excess half-open calls are short-circuited")
}

func TestBreaker_CleanWindowAfterRecovery(t *testing.T) {
	b := newTestBreaker()
	now := time.Now()
	b.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	b.now = func() time.Time { return now.Add(31 * time.Second) }
	require.True(t, b.Allow())
	b.RecordSuccess()
	require.True(t, b.Allow())
	b.RecordSuccess()
	require.Equal(t, StateClosed, b.State())

	// Pre-trip failures must not linger in the window
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, StateClosed, b.State())
}
