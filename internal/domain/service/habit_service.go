package service

import (
	"context"
	"time"

	"habit-hero/internal/analytics"
	"habit-hero/internal/domain/entity"
	"habit-hero/pkg/civil"

	"github.com/google/uuid"
)

// CreateHabitInput holds the fields of a new habit. A nil StartDate means today.
type CreateHabitInput struct {
	Name      string
	Category  string
	Frequency string
	StartDate *civil.Date
}

// UpdateHabitInput holds a partial habit update; nil fields are left unchanged.
type UpdateHabitInput struct {
	Name      *string
	Category  *string
	Frequency *string
}

// CheckInInput records a completion. A nil Date means today.
type CheckInInput struct {
	Date  *civil.Date
	Notes *string
}

// HabitSummary is a habit together with its derived statistics.
type HabitSummary struct {
	Habit *entity.Habit   `json:"habit"`
	Stats analytics.Stats `json:"stats"`
	AsOf  civil.Date      `json:"as_of"`
}

// BrokenStreak describes a habit whose streak ended on the last day.
type BrokenStreak struct {
	HabitID        uuid.UUID
	Name           string
	PreviousStreak int
	LastCheckIn    civil.Date
}

// HabitService defines the interface for habit business logic
type HabitService interface {
	// CreateHabit validates and stores a new habit
	CreateHabit(ctx context.Context, in CreateHabitInput) (*entity.Habit, error)

	// GetHabit retrieves a habit by ID
	GetHabit(ctx context.Context, habitID uuid.UUID) (*entity.Habit, error)

	// ListHabits retrieves habits in creation order
	ListHabits(ctx context.Context, skip, limit int) ([]*entity.Habit, error)

	// UpdateHabit changes name, category or frequency
	UpdateHabit(ctx context.Context, habitID uuid.UUID, in UpdateHabitInput) (*entity.Habit, error)

	// DeleteHabit removes a habit together with its history
	DeleteHabit(ctx context.Context, habitID uuid.UUID) error

	// CheckIn records a completion of a habit
	CheckIn(ctx context.Context, habitID uuid.UUID, in CheckInInput) (*entity.CheckIn, error)

	// RemoveCheckIn deletes the completion of a habit on date
	RemoveCheckIn(ctx context.Context, habitID uuid.UUID, date civil.Date) error

	// GetStreak computes the statistics of a habit as of today
	GetStreak(ctx context.Context, habitID uuid.UUID) (analytics.Stats, error)

	// GetSummary returns a habit along with its statistics
	GetSummary(ctx context.Context, habitID uuid.UUID) (*HabitSummary, error)

	// GetCalendar returns the completed days of a month
	GetCalendar(ctx context.Context, habitID uuid.UUID, year int, month time.Month) (analytics.MonthCalendar, error)

	// DetectBrokenStreaks returns habits that had a live streak yesterday and none today
	DetectBrokenStreaks(ctx context.Context) ([]BrokenStreak, error)

	// Ping checks that the backing store is reachable
	Ping(ctx context.Context) error
}

// HabitLocker serializes mutations of a single habit.
type HabitLocker interface {
	Lock(ctx context.Context, habitID uuid.UUID) (unlock func(), err error)
}

// EventPublisher delivers domain events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...entity.Event) error
}
