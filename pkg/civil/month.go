package civil

import (
	"fmt"
	"strings"
	"time"
)

// MonthLayout is the text form of a calendar month.
const MonthLayout = "2006-01"

// ParseMonth parses a YYYY-MM string and returns the first day of that month.
func ParseMonth(s string) (Date, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return New(t.Year(), t.Month(), 1), nil
}

// MonthRange returns the first and last day of the month containing d.
func MonthRange(d Date) (first, last Date) {
	first = d.FirstOfMonth()
	last = New(first.Year(), first.Month()+1, 1).AddDays(-1)
	return first, last
}
