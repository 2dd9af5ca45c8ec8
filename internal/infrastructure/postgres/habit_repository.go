package postgres

import (
	"context"
	"fmt"

	"habit-hero/internal/domain/apperrors"
	"habit-hero/internal/domain/entity"
	"habit-hero/internal/domain/repository"
	"habit-hero/pkg/civil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type habitRepository struct {
	pool *pgxpool.Pool
}

// NewHabitRepository creates a new PostgreSQL habit repository
func NewHabitRepository(pool *pgxpool.Pool) repository.HabitRepository {
	return &habitRepository{pool: pool}
}

func (r *habitRepository) Create(ctx context.Context, habit *entity.Habit) error {
	query := `
		INSERT INTO habits (
			id, name, category, frequency, start_date, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := r.pool.Exec(ctx, query,
		habit.ID, habit.Name, string(habit.Category), string(habit.Frequency),
		habit.StartDate.Time(), habit.CreatedAt, habit.UpdatedAt,
	)

	if err != nil {
		if pgCode(err) == uniqueViolation {
			return apperrors.Conflictf("habit %s already exists", habit.ID)
		}
		return apperrors.Unavailable("failed to create habit", err)
	}

	return nil
}

func (r *habitRepository) GetByID(ctx context.Context, habitID uuid.UUID) (*entity.Habit, error) {
	query := `
		SELECT
			h.id, h.name, h.category, h.frequency, h.start_date, h.created_at, h.updated_at,
			c.id, c.date, c.notes, c.created_at
		FROM habits h
		LEFT JOIN check_ins c ON c.habit_id = h.id
		WHERE h.id = $1
		ORDER BY c.date
	`

	rows, err := r.pool.Query(ctx, query, habitID)
	if err != nil {
		return nil, apperrors.Unavailable("failed to get habit", err)
	}

	habits, err := scanHabits(rows)
	if err != nil {
		return nil, apperrors.Unavailable("failed to get habit", err)
	}
	if len(habits) == 0 {
		return nil, apperrors.NotFoundf("habit %s not found", habitID)
	}

	return habits[0], nil
}

func (r *habitRepository) List(ctx context.Context, offset, limit int) ([]*entity.Habit, error) {
	query := `
		SELECT
			h.id, h.name, h.category, h.frequency, h.start_date, h.created_at, h.updated_at,
			c.id, c.date, c.notes, c.created_at
		FROM (
			SELECT * FROM habits ORDER BY seq LIMIT $1 OFFSET $2
		) h
		LEFT JOIN check_ins c ON c.habit_id = h.id
		ORDER BY h.seq, c.date
	`

	// LIMIT NULL means no limit.
	var pageSize *int
	if limit > 0 {
		pageSize = &limit
	}

	rows, err := r.pool.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, apperrors.Unavailable("failed to list habits", err)
	}

	habits, err := scanHabits(rows)
	if err != nil {
		return nil, apperrors.Unavailable("failed to list habits", err)
	}

	return habits, nil
}

func (r *habitRepository) Update(ctx context.Context, habit *entity.Habit) error {
	query := `
		UPDATE habits
		SET name = $2, category = $3, frequency = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		habit.ID, habit.Name, string(habit.Category), string(habit.Frequency), habit.UpdatedAt,
	)
	if err != nil {
		return apperrors.Unavailable("failed to update habit", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("habit %s not found", habit.ID)
	}

	return nil
}

func (r *habitRepository) Delete(ctx context.Context, habitID uuid.UUID) error {
	// check_ins rows go with it through ON DELETE CASCADE.
	tag, err := r.pool.Exec(ctx, `DELETE FROM habits WHERE id = $1`, habitID)
	if err != nil {
		return apperrors.Unavailable("failed to delete habit", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("habit %s not found", habitID)
	}

	return nil
}

func (r *habitRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return apperrors.Unavailable("postgres is unreachable", err)
	}
	return nil
}

// scanHabits groups joined habit/check-in rows. Rows must be ordered by habit, then date.
func scanHabits(rows pgx.Rows) ([]*entity.Habit, error) {
	defer rows.Close()

	habits := make([]*entity.Habit, 0)
	var current *entity.Habit

	for rows.Next() {
		var (
			habit     entity.Habit
			category  string
			frequency string
			startDate pgtype.Date

			checkInID        pgtype.UUID
			checkInDate      pgtype.Date
			notes            pgtype.Text
			checkInCreatedAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&habit.ID, &habit.Name, &category, &frequency, &startDate, &habit.CreatedAt, &habit.UpdatedAt,
			&checkInID, &checkInDate, &notes, &checkInCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}

		if current == nil || current.ID != habit.ID {
			habit.Category = entity.Category(category)
			habit.Frequency = entity.Frequency(frequency)
			habit.StartDate = civil.FromTime(startDate.Time)
			habit.CreatedAt = habit.CreatedAt.UTC()
			habit.UpdatedAt = habit.UpdatedAt.UTC()
			habit.CheckIns = make([]entity.CheckIn, 0)

			current = &habit
			habits = append(habits, current)
		}

		if !checkInID.Valid {
			continue
		}

		checkIn := entity.CheckIn{
			ID:        uuid.UUID(checkInID.Bytes),
			HabitID:   current.ID,
			Date:      civil.FromTime(checkInDate.Time),
			CreatedAt: checkInCreatedAt.Time.UTC(),
		}
		if notes.Valid {
			n := notes.String
			checkIn.Notes = &n
		}
		current.CheckIns = append(current.CheckIns, checkIn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}

	return habits, nil
}
