package sqlite

import (
	"context"
	"database/sql"

	"habit-hero/internal/domain/apperrors"
	"habit-hero/internal/domain/entity"
	"habit-hero/internal/domain/repository"

	"github.com/google/uuid"
)

type habitRepository struct {
	db *sql.DB
}

// NewHabitRepository creates a new SQLite habit repository
func NewHabitRepository(db *sql.DB) repository.HabitRepository {
	return &habitRepository{db: db}
}

func (r *habitRepository) Create(ctx context.Context, habit *entity.Habit) error {
	query := `
		INSERT INTO habits (
			id, name, category, frequency, start_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		habit.ID.String(), habit.Name, string(habit.Category), string(habit.Frequency),
		habit.StartDate.String(), formatTime(habit.CreatedAt), formatTime(habit.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflictf("habit %s already exists", habit.ID)
		}
		return unavailable("failed to create habit", err)
	}

	return nil
}

func (r *habitRepository) GetByID(ctx context.Context, habitID uuid.UUID) (*entity.Habit, error) {
	query := `
		SELECT ` + habitWithCheckInsColumns + `
		FROM habits h
		LEFT JOIN check_ins c ON c.habit_id = h.id
		WHERE h.id = ?
		ORDER BY c.date
	`

	rows, err := r.db.QueryContext(ctx, query, habitID.String())
	if err != nil {
		return nil, unavailable("failed to get habit", err)
	}
	defer rows.Close()

	habits, err := scanHabits(rows)
	if err != nil {
		return nil, unavailable("failed to get habit", err)
	}
	if len(habits) == 0 {
		return nil, apperrors.NotFoundf("habit %s not found", habitID)
	}

	return habits[0], nil
}

func (r *habitRepository) List(ctx context.Context, offset, limit int) ([]*entity.Habit, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}

	query := `
		SELECT ` + habitWithCheckInsColumns + `
		FROM (
			SELECT * FROM habits ORDER BY seq LIMIT ? OFFSET ?
		) h
		LEFT JOIN check_ins c ON c.habit_id = h.id
		ORDER BY h.seq, c.date
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, unavailable("failed to list habits", err)
	}
	defer rows.Close()

	habits, err := scanHabits(rows)
	if err != nil {
		return nil, unavailable("failed to list habits", err)
	}

	return habits, nil
}

func (r *habitRepository) Update(ctx context.Context, habit *entity.Habit) error {
	query := `
		UPDATE habits
		SET name = ?, category = ?, frequency = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		habit.Name, string(habit.Category), string(habit.Frequency), formatTime(habit.UpdatedAt),
		habit.ID.String(),
	)
	if err != nil {
		return unavailable("failed to update habit", err)
	}

	return requireAffected(result, apperrors.NotFoundf("habit %s not found", habit.ID))
}

func (r *habitRepository) Delete(ctx context.Context, habitID uuid.UUID) error {
	// check_ins rows go with it through ON DELETE CASCADE.
	result, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, habitID.String())
	if err != nil {
		return unavailable("failed to delete habit", err)
	}

	return requireAffected(result, apperrors.NotFoundf("habit %s not found", habitID))
}

func (r *habitRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("sqlite is unreachable", err)
	}
	return nil
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("failed to read affected rows", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
