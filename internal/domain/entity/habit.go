package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"habit-hero/pkg/civil"

	"github.com/google/uuid"
)

// Frequency is the expected cadence of a habit. It is a closed set: anything other than
// daily or weekly is rejected at the service boundary.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"  // one check-in per day
	FrequencyWeekly Frequency = "weekly" // one check-in every 7 days
)

// ParseFrequency normalizes and validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyDaily, FrequencyWeekly:
		return f, nil
	default:
		return "", fmt.Errorf("frequency must be %q or %q, got %q", FrequencyDaily, FrequencyWeekly, s)
	}
}

// StepDays returns the streak step size in days.
func (f Frequency) StepDays() int {
	if f == FrequencyWeekly {
		return 7
	}
	return 1
}

// Category is an open label. The known values below are what the frontend offers, but
// any non-empty string is accepted so new categories need no server release.
type Category string

const (
	CategoryLearning     Category = "learning"
	CategoryHealth       Category = "health"
	CategoryWork         Category = "work"
	CategoryFitness      Category = "fitness"
	CategoryMentalHealth Category = "mental_health"
	CategoryProductivity Category = "productivity"
)

// KnownCategories lists the categories offered by default.
var KnownCategories = []Category{
	CategoryLearning,
	CategoryHealth,
	CategoryWork,
	CategoryFitness,
	CategoryMentalHealth,
	CategoryProductivity,
}

// IsKnown reports whether c is one of KnownCategories.
func (c Category) IsKnown() bool {
	for _, k := range KnownCategories {
		if c == k {
			return true
		}
	}
	return false
}

// Habit represents a tracked habit and the check-ins it owns.
type Habit struct {
	ID uuid.UUID `json:"id"`

	// Basic info
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Frequency Frequency `json:"frequency"`

	// StartDate is immutable after creation; check-ins before it are invalid.
	StartDate civil.Date `json:"start_date"`

	// CheckIns is ordered by date ascending and unique by date.
	CheckIns []CheckIn `json:"check_ins"`

	// Metadata
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers can hand out snapshots without sharing the
// check-in slice.
func (h *Habit) Clone() *Habit {
	c := *h
	c.CheckIns = make([]CheckIn, len(h.CheckIns))
	copy(c.CheckIns, h.CheckIns)
	for i := range c.CheckIns {
		if n := h.CheckIns[i].Notes; n != nil {
			notes := *n
			c.CheckIns[i].Notes = &notes
		}
	}
	return &c
}

// HasCheckInOn reports whether the habit has a check-in for date.
func (h *Habit) HasCheckInOn(date civil.Date) bool {
	for _, c := range h.CheckIns {
		if c.Date.Equal(date) {
			return true
		}
	}
	return false
}

// SortCheckIns orders CheckIns by date ascending.
func (h *Habit) SortCheckIns() {
	sort.Slice(h.CheckIns, func(i, j int) bool {
		return h.CheckIns[i].Date.Before(h.CheckIns[j].Date)
	})
}

// CheckInDates returns the dates of all check-ins in stored order.
func (h *Habit) CheckInDates() []civil.Date {
	dates := make([]civil.Date, len(h.CheckIns))
	for i, c := range h.CheckIns {
		dates[i] = c.Date
	}
	return dates
}
