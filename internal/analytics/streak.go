// Package analytics derives streak statistics from a habit's check-in history.
//
// Everything here is a pure function of its arguments: the habit is received by value,
// "today" is a parameter and nothing is cached or persisted. The functions are safe to
// call concurrently.
package analytics

import (
	"math"
	"sort"

	"habit-hero/internal/domain/entity"
	"habit-hero/pkg/civil"
)

// Stats is the derived view of a habit's check-in history.
type Stats struct {
	CurrentStreak  int         `json:"current_streak"`
	LongestStreak  int         `json:"longest_streak"`
	TotalCheckIns  int         `json:"total_check_ins"`
	CompletionRate float64     `json:"completion_rate"`
	LastCheckIn    *civil.Date `json:"last_check_in"`
}

// Compute returns the streak statistics of habit as of today.
//
// Consecutive check-ins are those at most one step apart (1 day for daily habits,
// 7 days for weekly ones). Weekly habits are measured in days from the previous
// check-in, not aligned to calendar weeks. The current streak is alive only when the
// most recent check-in not after today lies within one step of today.
func Compute(habit entity.Habit, today civil.Date) Stats {
	stats := Stats{TotalCheckIns: len(habit.CheckIns)}
	if len(habit.CheckIns) == 0 {
		return stats
	}

	step := habit.Frequency.StepDays()
	desc := uniqueDatesDesc(habit.CheckInDates())

	last := desc[0]
	stats.LastCheckIn = &last

	// Future-dated check-ins count toward the total but never toward the current streak.
	past := desc
	for len(past) > 0 && past[0].After(today) {
		past = past[1:]
	}

	stats.CurrentStreak = currentStreak(past, today, step)
	stats.LongestStreak = longestStreak(desc, step)
	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	stats.CompletionRate = completionRate(habit, today, step)

	return stats
}

// CurrentStreak is a shorthand for Compute(habit, today).CurrentStreak.
func CurrentStreak(habit entity.Habit, today civil.Date) int {
	return Compute(habit, today).CurrentStreak
}

func currentStreak(desc []civil.Date, today civil.Date, step int) int {
	if len(desc) == 0 || today.DaysSince(desc[0]) > step {
		return 0
	}

	streak := 1
	for i := 1; i < len(desc); i++ {
		if desc[i-1].DaysSince(desc[i]) > step {
			break
		}
		streak++
	}
	return streak
}

func longestStreak(desc []civil.Date, step int) int {
	if len(desc) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(desc); i++ {
		if desc[i-1].DaysSince(desc[i]) <= step {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// completionRate relates the check-ins made between the start date and today to the
// number of periods the frequency expects in that span, as a percentage capped at 100.
func completionRate(habit entity.Habit, today civil.Date, step int) float64 {
	if habit.StartDate.IsZero() || today.Before(habit.StartDate) {
		return 0
	}

	days := today.DaysSince(habit.StartDate) + 1
	expected := (days + step - 1) / step

	done := 0
	for _, c := range habit.CheckIns {
		if !c.Date.Before(habit.StartDate) && !c.Date.After(today) {
			done++
		}
	}

	rate := float64(done) / float64(expected) * 100
	if rate > 100 {
		rate = 100
	}
	return math.Round(rate*100) / 100
}

// uniqueDatesDesc sorts dates newest first in place and drops duplicates.
func uniqueDatesDesc(dates []civil.Date) []civil.Date {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].After(dates[j])
	})

	out := dates[:0]
	for _, d := range dates {
		if len(out) > 0 && d.Equal(out[len(out)-1]) {
			continue
		}
		out = append(out, d)
	}
	return out
}
