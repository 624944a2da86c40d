package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// ledgerKey namespaces idempotency records in Redis.
func ledgerKey(key string) string {
	return fmt.Sprintf("order_core:idem:%s", key)
}

// RedisLedger is the distributed Ledger adapter. SET NX EX is the
// atomic register: Redis owns both the compare-and-set and the TTL, so
// concurrent registers across processes serialize on the key.
type RedisLedger struct {
	rdb *rd.Client
}

func NewRedisLedger(rdb *rd.Client) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

func (l *RedisLedger) Lookup(ctx context.Context, key string) (Record, bool, error) {
	val, err := l.rdb.Get(ctx, ledgerKey(key)).Result()
	if errors.Is(err, rd.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return Record{}, false, fmt.Errorf("corrupt idempotency record for %q: %w", key, err)
	}
	return rec, true, nil
}

func (l *RedisLedger) Register(ctx context.Context, key, resourceType, resourceID string, ttl time.Duration) error {
	rec := Record{
		Key:          key,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ExpiresAt:    time.Now().Add(ttl),
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ok, err := l.rdb.SetNX(ctx, ledgerKey(key), val, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
