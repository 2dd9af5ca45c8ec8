package kafka

import (
	"testing"
	"time"

	"habit-hero/internal/domain/entity"

	"github.com/google/uuid"
)

func TestEncodeEvent(t *testing.T) {
	habitID := uuid.New()
	at := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	e := entity.NewEvent(entity.EventCheckInAdded, habitID, at, map[string]any{
		"date":           "2024-01-05",
		"current_streak": 3,
	})

	msg, err := EncodeEvent(e)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}

	if string(msg.Key) != habitID.String() {
		t.Errorf("key = %s, want habit id", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "check_in.added" {
		t.Errorf("headers = %v", msg.Headers)
	}

	decoded, err := decodeEvent(msg.Value)
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if decoded.ID != e.ID || decoded.HabitID != habitID || decoded.Type != entity.EventCheckInAdded {
		t.Errorf("decoded = %+v", decoded)
	}
	if !decoded.OccurredAt.Equal(at) {
		t.Errorf("occurred_at = %v, want %v", decoded.OccurredAt, at)
	}
	// Struct numbers are doubles on the wire.
	if decoded.Attributes["current_streak"] != float64(3) || decoded.Attributes["date"] != "2024-01-05" {
		t.Errorf("attributes = %v", decoded.Attributes)
	}
}

func TestEncodeEvent_NilAttributes(t *testing.T) {
	e := entity.NewEvent(entity.EventHabitDeleted, uuid.New(), time.Now(), nil)

	msg, err := EncodeEvent(e)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	decoded, err := decodeEvent(msg.Value)
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if len(decoded.Attributes) != 0 {
		t.Errorf("attributes = %v, want empty", decoded.Attributes)
	}
}

func TestEncodeEvent_RejectsUnsupportedAttribute(t *testing.T) {
	e := entity.NewEvent(entity.EventHabitUpdated, uuid.New(), time.Now(), map[string]any{
		"bad": struct{}{},
	})
	if _, err := EncodeEvent(e); err == nil {
		t.Error("expected error for unsupported attribute type")
	}
}

func TestDecodeEvent_Invalid(t *testing.T) {
	if _, err := decodeEvent([]byte("not json")); err == nil {
		t.Error("expected error for invalid payload")
	}
	if _, err := decodeEvent([]byte(`{"event_id":"nope"}`)); err == nil {
		t.Error("expected error for invalid event id")
	}
}
