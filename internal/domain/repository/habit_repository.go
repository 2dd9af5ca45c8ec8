package repository

import (
	"context"

	"habit-hero/internal/domain/entity"

	"github.com/google/uuid"
)

// HabitRepository defines the interface for habit persistence
type HabitRepository interface {
	// Create creates a new habit
	Create(ctx context.Context, habit *entity.Habit) error

	// GetByID retrieves a habit by ID with its check-ins ordered by date
	GetByID(ctx context.Context, habitID uuid.UUID) (*entity.Habit, error)

	// List retrieves habits in creation order, check-ins included
	List(ctx context.Context, offset, limit int) ([]*entity.Habit, error)

	// Update updates name, category and frequency of a habit
	Update(ctx context.Context, habit *entity.Habit) error

	// Delete removes a habit and all of its check-ins
	Delete(ctx context.Context, habitID uuid.UUID) error

	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}
