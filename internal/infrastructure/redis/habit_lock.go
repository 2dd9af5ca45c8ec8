package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	habitLockPrefix   = "habit:lock:"
	lockRetryInterval = 25 * time.Millisecond
	unlockTimeout     = time.Second
)

// ErrLockTimeout is returned when a habit lock could not be taken within the wait time.
var ErrLockTimeout = errors.New("timed out waiting for habit lock")

// releaseScript deletes the lock only if it still carries our token, so an expired lock
// that another instance has since taken is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// HabitLocker serializes habit mutations across service instances
type HabitLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger *log.Logger
}

// NewHabitLocker creates a Redis-backed habit locker. ttl bounds how long a crashed
// holder can block others; wait bounds how long Lock retries.
func NewHabitLocker(client *redis.Client, ttl, wait time.Duration, logger *log.Logger) *HabitLocker {
	return &HabitLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
		logger: logger.With("component", "redis-lock"),
	}
}

// Lock takes the lock of habitID, retrying until it is free or the wait time runs out
func (l *HabitLocker) Lock(ctx context.Context, habitID uuid.UUID) (func(), error) {
	key := habitLockPrefix + habitID.String()
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire habit lock: %w", err)
		}
		if ok {
			return l.unlockFunc(key, token), nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrLockTimeout
		}
	}
}

func (l *HabitLocker) unlockFunc(key, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true

		// The request context may already be cancelled; release regardless.
		ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()

		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release habit lock", "key", key, "err", err)
		}
	}
}
