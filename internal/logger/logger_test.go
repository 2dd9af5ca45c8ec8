package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"habit-hero/internal/config"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "habits.log")

	log, closeFn, err := New(config.LoggingConfig{Level: "debug", Format: "json", OutputPath: path, MaxSizeMB: 1}, "habit-hero")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Info("habit created", "habit_id", "abc")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	if entry["msg"] != "habit created" || entry["habit_id"] != "abc" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.log")

	log, closeFn, err := New(config.LoggingConfig{Level: "WARN", Format: "logfmt", OutputPath: path}, "habit-hero")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("dropped")
	log.Warn("kept")
	closeFn()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "dropped") {
		t.Error("info message written at warn level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Error("warn message missing")
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	if _, _, err := New(config.LoggingConfig{Level: "loud"}, "x"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, _, err := New(config.LoggingConfig{Format: "xml"}, "x"); err == nil {
		t.Error("expected error for unknown format")
	}
}
