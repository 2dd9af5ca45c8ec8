package memory

import (
	"context"
	"sort"

	"habit-hero/internal/domain/apperrors"
	"habit-hero/internal/domain/entity"
	"habit-hero/internal/domain/repository"
	"habit-hero/pkg/civil"

	"github.com/google/uuid"
)

type checkInRepository struct {
	store *Store
}

// NewCheckInRepository creates a check-in repository over store
func NewCheckInRepository(store *Store) repository.CheckInRepository {
	return &checkInRepository{store: store}
}

func (r *checkInRepository) Create(ctx context.Context, checkIn *entity.CheckIn) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	habit, ok := r.store.habits[checkIn.HabitID]
	if !ok {
		return apperrors.NotFoundf("habit %s not found", checkIn.HabitID)
	}

	if checkIn.Date.Before(habit.StartDate) {
		return apperrors.Validationf("check-in date %s is before the habit start date %s", checkIn.Date, habit.StartDate)
	}
	if habit.HasCheckInOn(checkIn.Date) {
		return apperrors.Conflictf("habit %s already has a check-in on %s", checkIn.HabitID, checkIn.Date)
	}

	stored := *checkIn
	if checkIn.Notes != nil {
		notes := *checkIn.Notes
		stored.Notes = &notes
	}

	// Insert keeping the slice ordered by date.
	i := sort.Search(len(habit.CheckIns), func(i int) bool {
		return habit.CheckIns[i].Date.After(stored.Date)
	})
	habit.CheckIns = append(habit.CheckIns, entity.CheckIn{})
	copy(habit.CheckIns[i+1:], habit.CheckIns[i:])
	habit.CheckIns[i] = stored

	return nil
}

func (r *checkInRepository) Delete(ctx context.Context, habitID uuid.UUID, date civil.Date) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	habit, ok := r.store.habits[habitID]
	if !ok {
		return apperrors.NotFoundf("habit %s not found", habitID)
	}

	for i, c := range habit.CheckIns {
		if c.Date.Equal(date) {
			habit.CheckIns = append(habit.CheckIns[:i], habit.CheckIns[i+1:]...)
			return nil
		}
	}

	return apperrors.NotFoundf("habit %s has no check-in on %s", habitID, date)
}

func (r *checkInRepository) ListByHabitID(ctx context.Context, habitID uuid.UUID) ([]entity.CheckIn, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	habit, ok := r.store.habits[habitID]
	if !ok {
		return nil, apperrors.NotFoundf("habit %s not found", habitID)
	}

	return habit.Clone().CheckIns, nil
}

func (r *checkInRepository) ListBetween(ctx context.Context, habitID uuid.UUID, from, to civil.Date) ([]entity.CheckIn, error) {
	checkIns, err := r.ListByHabitID(ctx, habitID)
	if err != nil {
		return nil, err
	}

	out := make([]entity.CheckIn, 0, len(checkIns))
	for _, c := range checkIns {
		if c.Date.Before(from) || c.Date.After(to) {
			continue
		}
		out = append(out, c)
	}

	return out, nil
}
