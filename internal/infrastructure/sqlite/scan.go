// Package sqlite stores habits in a SQLite database through database/sql and the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"habit-hero/internal/domain/apperrors"
	"habit-hero/internal/domain/entity"
	"habit-hero/pkg/civil"

	"github.com/google/uuid"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Timestamps are stored as RFC 3339 text in UTC, dates as YYYY-MM-DD text. Both sort
// lexicographically in time order.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// sqliteCode returns the extended result code of a driver error, or 0.
func sqliteCode(err error) int {
	var sqliteErr *sqlitedriver.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	switch code := sqliteCode(err); code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "UNIQUE")
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	switch code := sqliteCode(err); code {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "FOREIGN KEY")
	}
	return false
}

// beforeStartMessage is raised by the trg_check_ins_start_date trigger.
const beforeStartMessage = "check_in_before_start_date"

// RAISE(ABORT) reports SQLITE_CONSTRAINT_TRIGGER; the message identifies which one.
func isBeforeStartDate(err error) bool {
	return err != nil && strings.Contains(err.Error(), beforeStartMessage)
}

// habitWithCheckInsColumns is the select list shared by GetByID and List. The check-in
// columns are NULL for habits without check-ins (LEFT JOIN).
const habitWithCheckInsColumns = `
	h.id, h.name, h.category, h.frequency, h.start_date, h.created_at, h.updated_at,
	c.id, c.date, c.notes, c.created_at`

// scanHabits groups joined habit/check-in rows. Rows must be ordered by habit, then date.
func scanHabits(rows *sql.Rows) ([]*entity.Habit, error) {
	habits := make([]*entity.Habit, 0)
	var current *entity.Habit

	for rows.Next() {
		var (
			habitID, name, category, frequency, startDate, createdAt, updatedAt string
			checkInID, checkInDate, checkInCreatedAt                            sql.NullString
			notes                                                               sql.NullString
		)
		if err := rows.Scan(
			&habitID, &name, &category, &frequency, &startDate, &createdAt, &updatedAt,
			&checkInID, &checkInDate, &notes, &checkInCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}

		if current == nil || current.ID.String() != habitID {
			habit, err := buildHabit(habitID, name, category, frequency, startDate, createdAt, updatedAt)
			if err != nil {
				return nil, err
			}
			habit.CheckIns = make([]entity.CheckIn, 0)
			habits = append(habits, habit)
			current = habit
		}

		if !checkInID.Valid {
			continue
		}
		checkIn, err := buildCheckIn(checkInID.String, current.ID, checkInDate.String, notes, checkInCreatedAt.String)
		if err != nil {
			return nil, err
		}
		current.CheckIns = append(current.CheckIns, checkIn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}

	return habits, nil
}

func buildHabit(id, name, category, frequency, startDate, createdAt, updatedAt string) (*entity.Habit, error) {
	habitID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt habit id %q: %w", id, err)
	}
	start, err := civil.Parse(startDate)
	if err != nil {
		return nil, fmt.Errorf("corrupt start date of habit %s: %w", id, err)
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at of habit %s: %w", id, err)
	}
	updated, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt updated_at of habit %s: %w", id, err)
	}

	return &entity.Habit{
		ID:        habitID,
		Name:      name,
		Category:  entity.Category(category),
		Frequency: entity.Frequency(frequency),
		StartDate: start,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func buildCheckIn(id string, habitID uuid.UUID, date string, notes sql.NullString, createdAt string) (entity.CheckIn, error) {
	checkInID, err := uuid.Parse(id)
	if err != nil {
		return entity.CheckIn{}, fmt.Errorf("corrupt check-in id %q: %w", id, err)
	}
	d, err := civil.Parse(date)
	if err != nil {
		return entity.CheckIn{}, fmt.Errorf("corrupt date of check-in %s: %w", id, err)
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return entity.CheckIn{}, fmt.Errorf("corrupt created_at of check-in %s: %w", id, err)
	}

	checkIn := entity.CheckIn{
		ID:        checkInID,
		HabitID:   habitID,
		Date:      d,
		CreatedAt: created,
	}
	if notes.Valid {
		n := notes.String
		checkIn.Notes = &n
	}
	return checkIn, nil
}

func nullableNotes(notes *string) sql.NullString {
	if notes == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *notes, Valid: true}
}

func unavailable(op string, err error) error {
	return apperrors.Unavailable(op, err)
}
