package entity

import (
	"time"

	"habit-hero/pkg/civil"

	"github.com/google/uuid"
)

// CheckIn records that a habit was performed on a calendar date. It has no lifecycle of
// its own and is removed together with its habit.
type CheckIn struct {
	ID      uuid.UUID `json:"id"`
	HabitID uuid.UUID `json:"habit_id"`

	Date  civil.Date `json:"date"`
	Notes *string    `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
}
