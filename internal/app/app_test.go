package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("STORAGE_DRIVER", "")
}

func TestNew_Drivers(t *testing.T) {
	tests := []struct {
		name   string
		config func(dir string) string
	}{
		{
			name: "memory",
			config: func(string) string {
				return "storage:\n  driver: memory\nlogging:\n  level: error\n"
			},
		},
		{
			name: "sqlite",
			config: func(dir string) string {
				return "storage:\n  driver: sqlite\nsqlite:\n  path: " + filepath.Join(dir, "habits.db") + "\nlogging:\n  level: error\n"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.config(t.TempDir()))

			a, err := New()
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			defer a.close()

			rec := httptest.NewRecorder()
			a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("health status = %d, want 200", rec.Code)
			}
			if a.grpcServer != nil || a.streakChecker != nil {
				t.Error("optional components should stay disabled")
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	writeConfig(t, "storage:\n  driver: cassandra\n")

	if _, err := New(); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}
