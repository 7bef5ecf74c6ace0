package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const ledgerKeyPrefix = "billing:event:"

// RedisLedger claims event ids with SET NX so every gateway instance sees
// the same processed set.
type RedisLedger struct {
	rdb redis.Cmdable
}

func NewRedisLedger(rdb redis.Cmdable) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

func (l *RedisLedger) Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, ledgerKeyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("billing: claim %s: %w", eventID, err)
	}
	return ok, nil
}

func (l *RedisLedger) Release(ctx context.Context, eventID string) error {
	if err := l.rdb.Del(ctx, ledgerKeyPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("billing: release %s: %w", eventID, err)
	}
	return nil
}

// MemoryLedger is a single-process ledger for development and tests.
type MemoryLedger struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claims: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryLedger) Claim(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, ok := l.claims[eventID]; ok && now.Before(exp) {
		return false, nil
	}
	l.claims[eventID] = now.Add(ttl)
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claims, eventID)
	return nil
}
