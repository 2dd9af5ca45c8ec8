package postgres

import (
	"context"

	"habit-hero/internal/domain/apperrors"
	"habit-hero/internal/domain/entity"
	"habit-hero/internal/domain/repository"
	"habit-hero/pkg/civil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type checkInRepository struct {
	pool *pgxpool.Pool
}

// NewCheckInRepository creates a new PostgreSQL check-in repository
func NewCheckInRepository(pool *pgxpool.Pool) repository.CheckInRepository {
	return &checkInRepository{pool: pool}
}

func (r *checkInRepository) Create(ctx context.Context, checkIn *entity.CheckIn) error {
	query := `
		INSERT INTO check_ins (
			id, habit_id, date, notes, created_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
	`

	_, err := r.pool.Exec(ctx, query,
		checkIn.ID,
		checkIn.HabitID,
		checkIn.Date.Time(),
		checkIn.Notes,
		checkIn.CreatedAt,
	)

	if err != nil {
		switch pgCode(err) {
		case uniqueViolation:
			return apperrors.Conflictf("habit %s already has a check-in on %s", checkIn.HabitID, checkIn.Date)
		case foreignKeyViolation:
			return apperrors.NotFoundf("habit %s not found", checkIn.HabitID)
		case checkViolation:
			return apperrors.Validationf("check-in date %s is before the habit start date", checkIn.Date)
		}
		return apperrors.Unavailable("failed to create check-in", err)
	}

	return nil
}

func (r *checkInRepository) Delete(ctx context.Context, habitID uuid.UUID, date civil.Date) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM check_ins WHERE habit_id = $1 AND date = $2`,
		habitID, date.Time(),
	)
	if err != nil {
		return apperrors.Unavailable("failed to delete check-in", err)
	}

	if tag.RowsAffected() > 0 {
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
		WHERE habit_id = $1
		ORDER BY date
	`
	return r.list(ctx, habitID, query, habitID)
}

func (r *checkInRepository) ListBetween(ctx context.Context, habitID uuid.UUID, from, to civil.Date) ([]entity.CheckIn, error) {
	query := `
		SELECT id, date, notes, created_at
		FROM check_ins
		WHERE habit_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`
	return r.list(ctx, habitID, query, habitID, from.Time(), to.Time())
}

func (r *checkInRepository) list(ctx context.Context, habitID uuid.UUID, query string, args ...any) ([]entity.CheckIn, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Unavailable("failed to list check-ins", err)
	}
	defer rows.Close()

	checkIns := make([]entity.CheckIn, 0)
	for rows.Next() {
		var (
			checkIn entity.CheckIn
			date    pgtype.Date
		)
		if err := rows.Scan(&checkIn.ID, &date, &checkIn.Notes, &checkIn.CreatedAt); err != nil {
			return nil, apperrors.Unavailable("failed to scan check-in", err)
		}
		checkIn.HabitID = habitID
		checkIn.Date = civil.FromTime(date.Time)
		checkIn.CreatedAt = checkIn.CreatedAt.UTC()
		checkIns = append(checkIns, checkIn)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Unavailable("failed to iterate check-ins", err)
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
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM habits WHERE id = $1)`, habitID).Scan(&exists)
	if err != nil {
		return apperrors.Unavailable("failed to look up habit", err)
	}
	if !exists {
		return apperrors.NotFoundf("habit %s not found", habitID)
	}
	return nil
}
