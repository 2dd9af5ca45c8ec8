package analytics

import (
	"sort"
	"time"

	"habit-hero/internal/domain/entity"
	"habit-hero/pkg/civil"
)

// MonthCalendar lists the completed days of one month, ascending.
type MonthCalendar struct {
	Month     string       `json:"month"` // YYYY-MM
	Completed []civil.Date `json:"completed"`
	Total     int          `json:"total"`
}

// Calendar returns the days of the given month on which habit was checked in.
func Calendar(habit entity.Habit, year int, month time.Month) MonthCalendar {
	first, last := civil.MonthRange(civil.New(year, month, 1))

	completed := make([]civil.Date, 0)
	for _, c := range habit.CheckIns {
		if c.Date.Before(first) || c.Date.After(last) {
			continue
		}
		completed = append(completed, c.Date)
	}
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].Before(completed[j])
	})

	return MonthCalendar{
		Month:     first.Time().Format(civil.MonthLayout),
		Completed: completed,
		Total:     len(completed),
	}
}
