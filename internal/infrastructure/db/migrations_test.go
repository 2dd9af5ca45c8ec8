package db

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"habit-hero/internal/logger"
)

func openTestSQLite(t *testing.T) *Runner {
	t.Helper()

	conn, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "habits.db"), time.Second)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	runner, err := NewRunner(conn, DialectSQLite, logger.Discard())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return runner
}

func TestApply_SQLite(t *testing.T) {
	ctx := context.Background()
	runner := openTestSQLite(t)

	applied, err := runner.Apply(ctx)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied == 0 {
		t.Fatal("expected at least one migration to run on a fresh database")
	}

	version, err := runner.CurrentVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	migrations, _ := runner.ReadMigrations()
	if version != migrations[len(migrations)-1].Version {
		t.Errorf("version = %d, want %d", version, migrations[len(migrations)-1].Version)
	}

	// Second run is a no-op.
	applied, err = runner.Apply(ctx)
	if err != nil || applied != 0 {
		t.Errorf("second Apply = %d, %v; want 0, nil", applied, err)
	}

	for _, table := range []string{"habits", "check_ins"} {
		var name string
		err := runner.db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestReadMigrations_Validation(t *testing.T) {
	tests := []struct {
		name  string
		files fstest.MapFS
	}{
		{
			name:  "missing name",
			files: fstest.MapFS{"001.sql": {Data: []byte("SELECT 1")}},
		},
		{
			name:  "non numeric version",
			files: fstest.MapFS{"abc_init.sql": {Data: []byte("SELECT 1")}},
		},
		{
			name:  "zero version",
			files: fstest.MapFS{"000_init.sql": {Data: []byte("SELECT 1")}},
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"001_init.sql":  {Data: []byte("SELECT 1")},
				"0001_more.sql": {Data: []byte("SELECT 1")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunnerFS(nil, tt.files, logger.Discard())
			if _, err := r.ReadMigrations(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadMigrations_SortsAndSkipsOtherFiles(t *testing.T) {
	r := NewRunnerFS(nil, fstest.MapFS{
		"002_second.sql": {Data: []byte("SELECT 2")},
		"001_first.sql":  {Data: []byte("SELECT 1")},
		"README.md":      {Data: []byte("docs")},
	}, logger.Discard())

	migrations, err := r.ReadMigrations()
	if err != nil {
		t.Fatalf("ReadMigrations: %v", err)
	}
	if len(migrations) != 2 || migrations[0].Name != "first" || migrations[1].Version != 2 {
		t.Errorf("migrations = %+v", migrations)
	}
}

func TestApply_RejectsNewerDatabase(t *testing.T) {
	ctx := context.Background()
	runner := openTestSQLite(t)

	if _, err := runner.Apply(ctx); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := runner.db.ExecContext(ctx, "UPDATE schema_version SET version = 999"); err != nil {
		t.Fatalf("bump version: %v", err)
	}

	if _, err := runner.Apply(ctx); err == nil {
		t.Error("expected error for newer schema")
	}
}
