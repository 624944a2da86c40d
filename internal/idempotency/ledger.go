package idempotency

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrConflict means a live record already exists for the key.
	// Callers resolve it by re-looking-up and adopting the winner's
	// resource; it is not a failure of the operation.
	ErrConflict = errors.New("idempotency key already registered")
)

// Record maps an idempotency key to the resource it produced.
// An expired record is indistinguishable from an absent one.
type Record struct {
	Key          string    `json:"key"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the record's TTL window has passed.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Ledger is the keyed store behind exactly-once order creation.
// Register must be linearizable per key: of two concurrent registers
// racing on the same key, exactly one succeeds and the other observes
// ErrConflict.
type Ledger interface {
	Lookup(ctx context.Context, key string) (Record, bool, error)
	Register(ctx context.Context, key, resourceType, resourceID string, ttl time.Duration) error
}
