package postgres

import (
	"context"
	"os"
	"testing"

	"habit-hero/internal/config"
	"habit-hero/internal/domain/repository"
	"habit-hero/internal/infrastructure/db"
	"habit-hero/internal/infrastructure/storetest"
	"habit-hero/internal/logger"
)

// Runs against a disposable database named by HABITS_TEST_DATABASE_URL. The tables are
// truncated before every subtest.
func TestStore(t *testing.T) {
	dsn := os.Getenv("HABITS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HABITS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPostgresPoolFromDSN(ctx, dsn, config.DatabaseConfig{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	runner, err := db.NewRunner(db.SQLFromPool(pool), db.DialectPostgres, logger.Discard())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if _, err := runner.Apply(ctx); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	storetest.Run(t, func(t *testing.T) (repository.HabitRepository, repository.CheckInRepository) {
		if _, err := pool.Exec(ctx, "TRUNCATE habits CASCADE"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return NewHabitRepository(pool), NewCheckInRepository(pool)
	})
}
