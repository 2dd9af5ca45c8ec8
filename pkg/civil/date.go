// Package civil provides a calendar date type with no time of day and no time zone.
//
// Every habit and check-in date in the service is a civil.Date. Two dates are compared
// and subtracted as calendar days, so daylight-saving shifts and the zone of the
// machine running the service never change the result.
package civil

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical text form of a Date.
const Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar date. The zero value means "no date" and is distinct from
// 0001-01-01; check it with IsZero.
type Date struct {
	t     time.Time // always midnight UTC
	valid bool
}

// New returns the date for the given year, month and day. Out-of-range values are
// normalized the way time.Date normalizes them (January 32 becomes February 1).
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), valid: true}
}

// Parse parses a date in YYYY-MM-DD form.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return New(t.Year(), t.Month(), t.Day()), nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the calendar date of t as seen in t's own location.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Today returns the calendar date of now in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return FromTime(now.In(loc))
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return !d.valid
}

func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return d.t
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	if !d.valid {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n), valid: true}
}

// DaysSince returns the number of calendar days from other to d. It is positive when d
// is later than other.
func (d Date) DaysSince(other Date) int {
	return int((d.t.Unix() - other.t.Unix()) / secondsPerDay)
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return New(d.Year(), d.Month(), 1)
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	return d.t.Compare(other.t)
}

// String returns d in YYYY-MM-DD form, or an empty string for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the zero Date.
func (d *Date) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
