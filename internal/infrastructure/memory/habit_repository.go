package memory

import (
	"context"

	"habit-hero/internal/domain/apperrors"
	"habit-hero/internal/domain/entity"
	"habit-hero/internal/domain/repository"

	"github.com/google/uuid"
)

type habitRepository struct {
	store *Store
}

// NewHabitRepository creates a habit repository over store
func NewHabitRepository(store *Store) repository.HabitRepository {
	return &habitRepository{store: store}
}

func (r *habitRepository) Create(ctx context.Context, habit *entity.Habit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.habits[habit.ID]; exists {
		return apperrors.Conflictf("habit %s already exists", habit.ID)
	}

	stored := habit.Clone()
	stored.SortCheckIns()
	r.store.habits[habit.ID] = stored
	r.store.order = append(r.store.order, habit.ID)

	return nil
}

func (r *habitRepository) GetByID(ctx context.Context, habitID uuid.UUID) (*entity.Habit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	habit, ok := r.store.habits[habitID]
	if !ok {
		return nil, apperrors.NotFoundf("habit %s not found", habitID)
	}

	return habit.Clone(), nil
}

func (r *habitRepository) List(ctx context.Context, offset, limit int) ([]*entity.Habit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	habits := make([]*entity.Habit, 0)
	if offset >= len(r.store.order) {
		return habits, nil
	}

	ids := r.store.order[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	for _, id := range ids {
		habits = append(habits, r.store.habits[id].Clone())
	}

	return habits, nil
}

func (r *habitRepository) Update(ctx context.Context, habit *entity.Habit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.habits[habit.ID]
	if !ok {
		return apperrors.NotFoundf("habit %s not found", habit.ID)
	}

	stored.Name = habit.Name
	stored.Category = habit.Category
	stored.Frequency = habit.Frequency
	stored.UpdatedAt = habit.UpdatedAt

	return nil
}

func (r *habitRepository) Delete(ctx context.Context, habitID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.habits[habitID]; !ok {
		return apperrors.NotFoundf("habit %s not found", habitID)
	}

	delete(r.store.habits, habitID)
	r.store.removeFromOrder(habitID)

	return nil
}

func (r *habitRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
