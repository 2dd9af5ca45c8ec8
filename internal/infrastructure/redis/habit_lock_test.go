package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"habit-hero/internal/config"
	"habit-hero/internal/logger"

	"github.com/google/uuid"
)

func newTestLocker(t *testing.T, wait time.Duration) *HabitLocker {
	t.Helper()

	addr := os.Getenv("HABITS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HABITS_TEST_REDIS_ADDR not set")
	}

	client, err := NewClient(context.Background(), config.RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewHabitLocker(client, 2*time.Second, wait, logger.Discard())
}

func TestHabitLocker_Exclusive(t *testing.T) {
	locker := newTestLocker(t, 100*time.Millisecond)
	ctx := context.Background()
	id := uuid.New()

	unlock, err := locker.Lock(ctx, id)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if _, err := locker.Lock(ctx, id); !errors.Is(err, ErrLockTimeout) {
		t.Errorf("second Lock = %v, want timeout", err)
	}

	other, err := locker.Lock(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Lock(other): %v", err)
	}
	other()

	unlock()

	again, err := locker.Lock(ctx, id)
	if err != nil {
		t.Fatalf("Lock after unlock: %v", err)
	}
	again()
}

func TestHabitLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	locker := newTestLocker(t, 100*time.Millisecond)
	ctx := context.Background()
	id := uuid.New()
	key := habitLockPrefix + id.String()

	unlock, err := locker.Lock(ctx, id)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	// Simulate expiry and takeover by another instance.
	if err := locker.client.Set(ctx, key, "someone-else", time.Second).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	unlock()

	val, err := locker.client.Get(ctx, key).Result()
	if err != nil || val != "someone-else" {
		t.Errorf("lock value = %q, %v; want the new holder's token", val, err)
	}
	locker.client.Del(ctx, key)
}
