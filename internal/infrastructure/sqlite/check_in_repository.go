package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"habit-hero/internal/domain/apperrors"
	"habit-hero/internal/domain/entity"
	"habit-hero/internal/domain/repository"
	"habit-hero/pkg/civil"

	"github.com/google/uuid"
)

type checkInRepository struct {
	db *sql.DB
}

// NewCheckInRepository creates a new SQLite check-in repository
func NewCheckInRepository(db *sql.DB) repository.CheckInRepository {
	return &checkInRepository{db: db}
}

func (r *checkInRepository) Create(ctx context.Context, checkIn *entity.CheckIn) error {
	query := `
		INSERT INTO check_ins (id, habit_id, date, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		checkIn.ID.String(), checkIn.HabitID.String(), checkIn.Date.String(),
		nullableNotes(checkIn.Notes), formatTime(checkIn.CreatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return apperrors.Conflictf("habit %s already has a check-in on %s", checkIn.HabitID, checkIn.Date)
		case isForeignKeyViolation(err):
			return apperrors.NotFoundf("habit %s not found", checkIn.HabitID)
		case isBeforeStartDate(err):
			return apperrors.Validationf("check-in date %s is before the habit start date", checkIn.Date)
		}
		return unavailable("failed to create check-in", err)
	}

	return nil
}

func (r *checkInRepository) Delete(ctx context.Context, habitID uuid.UUID, date civil.Date) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM check_ins WHERE habit_id = ? AND date = ?`,
		habitID.String(), date.String(),
	)
	if err != nil {
		return unavailable("failed to delete check-in", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("failed to delete check-in", err)
	}
	if n > 0 {
		return nil
	}

	if err := r.ensureHabit(ctx, habitID); err != nil {
		return err
	}
	return apperrors.NotFoundf("habit %s has no check-in on %s", habitID, date)
}

func (r *checkInRepository) ListByHabitID(ctx context.Context, habitID uuid.UUID) ([]entity.CheckIn, error) {
	query := `
		SELECT id, date, notes, created_at
		FROM check_ins
		WHERE habit_id = ?
		ORDER BY date
	`
	return r.list(ctx, habitID, query, habitID.String())
}

func (r *checkInRepository) ListBetween(ctx context.Context, habitID uuid.UUID, from, to civil.Date) ([]entity.CheckIn, error) {
	query := `
		SELECT id, date, notes, created_at
		FROM check_ins
		WHERE habit_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`
	return r.list(ctx, habitID, query, habitID.String(), from.String(), to.String())
}

func (r *checkInRepository) list(ctx context.Context, habitID uuid.UUID, query string, args ...any) ([]entity.CheckIn, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("failed to list check-ins", err)
	}
	defer rows.Close()

	checkIns := make([]entity.CheckIn, 0)
	for rows.Next() {
		var id, date, createdAt string
		var notes sql.NullString
		if err := rows.Scan(&id, &date, &notes, &createdAt); err != nil {
			return nil, unavailable("failed to scan check-in", err)
		}
		checkIn, err := buildCheckIn(id, habitID, date, notes, createdAt)
		if err != nil {
			return nil, unavailable("failed to scan check-in", err)
		}
		checkIns = append(checkIns, checkIn)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to iterate check-ins", err)
	}

	if len(checkIns) == 0 {
		if err := r.ensureHabit(ctx, habitID); err != nil {
			return nil, err
		}
	}

	return checkIns, nil
}

func (r *checkInRepository) ensureHabit(ctx context.Context, habitID uuid.UUID) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM habits WHERE id = ?)`, habitID.String(),
	).Scan(&exists)
	if err != nil {
		return unavailable(fmt.Sprintf("failed to look up habit %s", habitID), err)
	}
	if !exists {
		return apperrors.NotFoundf("habit %s not found", habitID)
	}
	return nil
}
