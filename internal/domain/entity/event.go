package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event published after a successful mutation.
type EventType string

const (
	EventHabitCreated   EventType = "habit.created"
	EventHabitUpdated   EventType = "habit.updated"
	EventHabitDeleted   EventType = "habit.deleted"
	EventCheckInAdded   EventType = "check_in.added"
	EventCheckInRemoved EventType = "check_in.removed"
	EventStreakBroken   EventType = "streak.broken"
)

// Event is a domain event. Attributes must hold JSON-compatible values
// (string, float64, int, bool, nil, []any, map[string]any).
type Event struct {
	ID         uuid.UUID
	Type       EventType
	HabitID    uuid.UUID
	OccurredAt time.Time
	Attributes map[string]any
}

// NewEvent creates an event with a fresh id.
func NewEvent(eventType EventType, habitID uuid.UUID, occurredAt time.Time, attrs map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		HabitID:    habitID,
		OccurredAt: occurredAt.UTC(),
		Attributes: attrs,
	}
}
