package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"habit-hero/internal/domain/repository"
	"habit-hero/internal/infrastructure/db"
	"habit-hero/internal/infrastructure/storetest"
	"habit-hero/internal/logger"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (repository.HabitRepository, repository.CheckInRepository) {
		ctx := context.Background()

		conn, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "habits.db"), time.Second)
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		t.Cleanup(func() { conn.Close() })

		runner, err := db.NewRunner(conn, db.DialectSQLite, logger.Discard())
		if err != nil {
			t.Fatalf("NewRunner: %v", err)
		}
		if _, err := runner.Apply(ctx); err != nil {
			t.Fatalf("Apply: %v", err)
		}

		return NewHabitRepository(conn), NewCheckInRepository(conn)
	})
}
