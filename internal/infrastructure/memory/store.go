// Package memory keeps habits in process memory. It backs the service in tests and in
// single-process deployments that do not need durability.
package memory

import (
	"sync"

	"habit-hero/internal/domain/entity"

	"github.com/google/uuid"
)

// Store is the shared state behind the memory repositories. Every read returns a deep
// copy, so callers never observe a later mutation through a value they already hold.
type Store struct {
	mu     sync.RWMutex
	habits map[uuid.UUID]*entity.Habit
	order  []uuid.UUID // creation order
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{habits: make(map[uuid.UUID]*entity.Habit)}
}

func (s *Store) removeFromOrder(id uuid.UUID) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
