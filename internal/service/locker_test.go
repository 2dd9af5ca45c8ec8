package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLocalLocker_Serializes(t *testing.T) {
	locker := NewLocalLocker()
	id := uuid.New()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), id)
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max holders = %d, want 1", maxSeen)
	}
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	locker := NewLocalLocker()
	id := uuid.New()

	unlock, err := locker.Lock(context.Background(), id)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, id); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}

	// Other ids are not blocked.
	otherUnlock, err := locker.Lock(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Lock(other): %v", err)
	}
	otherUnlock()

	unlock()
	unlock() // second call is a no-op

	again, err := locker.Lock(context.Background(), id)
	if err != nil {
		t.Fatalf("Lock after unlock: %v", err)
	}
	again()

	kl := locker.(*keyedLocker)
	kl.mu.Lock()
	defer kl.mu.Unlock()
	if len(kl.locks) != 0 {
		t.Errorf("locks left behind: %d", len(kl.locks))
	}
}
