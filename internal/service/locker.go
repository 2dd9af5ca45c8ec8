package service

import (
	"context"
	"sync"

	"habit-hero/internal/domain/service"

	"github.com/google/uuid"
)

// keyedLocker is an in-process HabitLocker: one mutex per habit id, created on demand and
// dropped once nobody holds or waits for it.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*habitLock
}

type habitLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates an in-process habit locker
func NewLocalLocker() service.HabitLocker {
	return &keyedLocker{locks: make(map[uuid.UUID]*habitLock)}
}

func (l *keyedLocker) Lock(ctx context.Context, habitID uuid.UUID) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[habitID]
	if !ok {
		lock = &habitLock{sem: make(chan struct{}, 1)}
		l.locks[habitID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(habitID, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.sem
			l.release(habitID, lock)
		})
	}, nil
}

func (l *keyedLocker) release(habitID uuid.UUID, lock *habitLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, habitID)
	}
}
