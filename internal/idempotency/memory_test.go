package idempotency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_LookupAbsent(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	_, found, err := l.Lookup(ctx, "missing")

	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryLedger_RegisterThenLookup(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	err := l.Register(ctx, "k1", "order", "order-1", time.Hour)
	require.NoError(t, err)

	rec, found, err := l.Lookup(ctx, "k1")

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "k1", rec.Key)
	assert.Equal(t, "order", rec.ResourceType)
	assert.Equal(t, "order-1", rec.ResourceID)
}

func TestMemoryLedger_RegisterConflict(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	require.NoError(t, l.Register(ctx, "k1", "order", "order-1", time.Hour))

	err := l.Register(ctx, "k1", "order", "order-2", time.Hour)

	assert.ErrorIs(t, err, ErrConflict)

	// The winner's record is untouched
	rec, found, err := l.Lookup(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "order-1", rec.ResourceID)
}

func TestMemoryLedger_ExpiredTreatedAsAbsent(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	now := time.Now()
	l.now = func() time.Time { return now }

	require.NoError(t, l.Register(ctx, "k1", "order", "order-1", time.Hour))

	// Advance past the TTL
	l.now = func() time.Time { return now.Add(2 * time.Hour) }

	_, found, err := l.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	// Key may be reused and treated as novel
	err = l.Register(ctx, "k1", "order", "order-2", time.Hour)
	require.NoError(t, err)

	rec, found, err := l.Lookup(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "order-2", rec.ResourceID)
}

func TestMemoryLedger_ConcurrentRegisterOneWinner(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	const callers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	conflicts := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := l.Register(ctx, "k1", "order", "order-"+string(rune('a'+n%26)), time.Hour)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else if assert.ErrorIs(t, err, ErrConflict) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, callers-1, conflicts)
}
