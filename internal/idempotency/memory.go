package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger is the in-process Ledger adapter. The liveness check
// and the write sit inside one critical section, which is what makes
// Register a compare-and-set rather than a racy check-then-write.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

func (l *MemoryLedger) Lookup(ctx context.Context, key string) (Record, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		return Record{}, false, nil
	}
	if rec.Expired(l.now()) {
		// Lazy expiry: storage hygiene only, absence is already correct.
		delete(l.records, key)
		return Record{}, false, nil
	}
	return rec, true, nil
}

func (l *MemoryLedger) Register(ctx context.Context, key, resourceType, resourceID string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if rec, ok := l.records[key]; ok && !rec.Expired(now) {
		return ErrConflict
	}

	l.records[key] = Record{
		Key:          key,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ExpiresAt:    now.Add(ttl),
	}
	return nil
}
