package repository

import (
	"context"

	"habit-hero/internal/domain/entity"
	"habit-hero/pkg/civil"

	"github.com/google/uuid"
)

// CheckInRepository defines the interface for check-in persistence
type CheckInRepository interface {
	// Create stores a check-in. A second check-in for the same habit and date
	// fails with a conflict error and leaves the history unchanged.
	Create(ctx context.Context, checkIn *entity.CheckIn) error

	// Delete removes the check-in of a habit on date
	Delete(ctx context.Context, habitID uuid.UUID, date civil.Date) error

	// ListByHabitID retrieves all check-ins of a habit ordered by date
	ListByHabitID(ctx context.Context, habitID uuid.UUID) ([]entity.CheckIn, error)

	// ListBetween retrieves check-ins of a habit with from <= date <= to, ordered by date
	ListBetween(ctx context.Context, habitID uuid.UUID, from, to civil.Date) ([]entity.CheckIn, error)
}
