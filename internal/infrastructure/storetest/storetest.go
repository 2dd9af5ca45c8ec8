// Package storetest holds the behaviour every habit store backend must share. Backend
// packages call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"habit-hero/internal/domain/apperrors"
	"habit-hero/internal/domain/entity"
	"habit-hero/internal/domain/repository"
	"habit-hero/pkg/civil"

	"github.com/google/uuid"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) (repository.HabitRepository, repository.CheckInRepository)

// Run executes the conformance suite against the store built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, habits repository.HabitRepository, checkIns repository.CheckInRepository)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"GetUnknown", testGetUnknown},
		{"ListOrderAndPaging", testListOrderAndPaging},
		{"Update", testUpdate},
		{"DeleteCascades", testDeleteCascades},
		{"CheckInOrdering", testCheckInOrdering},
		{"DuplicateCheckIn", testDuplicateCheckIn},
		{"CheckInUnknownHabit", testCheckInUnknownHabit},
		{"CheckInBeforeStartDate", testCheckInBeforeStartDate},
		{"DeleteCheckIn", testDeleteCheckIn},
		{"ListBetween", testListBetween},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			habits, checkIns := newStore(t)
			tt.fn(t, habits, checkIns)
		})
	}
}

var baseTime = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

// NewHabit returns a valid habit that has not been stored yet.
func NewHabit(name string) *entity.Habit {
	return &entity.Habit{
		ID:        uuid.New(),
		Name:      name,
		Category:  entity.CategoryHealth,
		Frequency: entity.FrequencyDaily,
		StartDate: civil.MustParse("2024-01-01"),
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

// NewCheckIn returns a check-in of habitID on date.
func NewCheckIn(habitID uuid.UUID, date string) *entity.CheckIn {
	return &entity.CheckIn{
		ID:        uuid.New(),
		HabitID:   habitID,
		Date:      civil.MustParse(date),
		CreatedAt: baseTime,
	}
}

func mustCreate(t *testing.T, habits repository.HabitRepository, h *entity.Habit) {
	t.Helper()
	if err := habits.Create(context.Background(), h); err != nil {
		t.Fatalf("Create(%s): %v", h.Name, err)
	}
}

func mustCheckIn(t *testing.T, checkIns repository.CheckInRepository, habitID uuid.UUID, dates ...string) {
	t.Helper()
	for _, d := range dates {
		if err := checkIns.Create(context.Background(), NewCheckIn(habitID, d)); err != nil {
			t.Fatalf("CheckIn %s: %v", d, err)
		}
	}
}

func datesOf(checkIns []entity.CheckIn) []string {
	out := make([]string, len(checkIns))
	for i, c := range checkIns {
		out[i] = c.Date.String()
	}
	return out
}

func assertDates(t *testing.T, got []entity.CheckIn, want ...string) {
	t.Helper()
	if fmt.Sprint(datesOf(got)) != fmt.Sprint(want) {
		t.Errorf("check-in dates = %v, want %v", datesOf(got), want)
	}
}

func testCreateAndGet(t *testing.T, habits repository.HabitRepository, _ repository.CheckInRepository) {
	ctx := context.Background()
	h := NewHabit("Read")
	h.Category = entity.CategoryMentalHealth
	h.Frequency = entity.FrequencyWeekly
	mustCreate(t, habits, h)

	got, err := habits.GetByID(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ID != h.ID || got.Name != "Read" || got.Category != entity.CategoryMentalHealth {
		t.Errorf("got %+v", got)
	}
	if got.Frequency != entity.FrequencyWeekly {
		t.Errorf("frequency = %q, want weekly", got.Frequency)
	}
	if !got.StartDate.Equal(h.StartDate) {
		t.Errorf("start date = %s, want %s", got.StartDate, h.StartDate)
	}
	if !got.CreatedAt.Equal(h.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, h.CreatedAt)
	}
	if len(got.CheckIns) != 0 {
		t.Errorf("new habit has %d check-ins", len(got.CheckIns))
	}

	if err := habits.Create(ctx, h); !apperrors.IsConflict(err) {
		t.Errorf("second Create = %v, want conflict", err)
	}
}

func testGetUnknown(t *testing.T, habits repository.HabitRepository, _ repository.CheckInRepository) {
	_, err := habits.GetByID(context.Background(), uuid.New())
	if !apperrors.IsNotFound(err) {
		t.Errorf("GetByID(unknown) = %v, want not found", err)
	}
}

func testListOrderAndPaging(t *testing.T, habits repository.HabitRepository, checkIns repository.CheckInRepository) {
	ctx := context.Background()

	var created []*entity.Habit
	for i := 0; i < 5; i++ {
		h := NewHabit(fmt.Sprintf("habit-%d", i))
		mustCreate(t, habits, h)
		created = append(created, h)
	}
	mustCheckIn(t, checkIns, created[1].ID, "2024-01-03", "2024-01-02")

	all, err := habits.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("List returned %d habits, want 5", len(all))
	}
	for i, h := range all {
		if h.ID != created[i].ID {
			t.Errorf("List[%d] = %s, want %s", i, h.Name, created[i].Name)
		}
	}
	assertDates(t, all[1].CheckIns, "2024-01-02", "2024-01-03")

	page, err := habits.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("List page: %v", err)
	}
	if len(page) != 2 || page[0].ID != created[1].ID || page[1].ID != created[2].ID {
		t.Errorf("page = %v", page)
	}
	assertDates(t, page[0].CheckIns, "2024-01-02", "2024-01-03")

	beyond, err := habits.List(ctx, 10, 5)
	if err != nil {
		t.Fatalf("List beyond: %v", err)
	}
	if beyond == nil || len(beyond) != 0 {
		t.Errorf("List beyond end = %v, want empty", beyond)
	}
}

func testUpdate(t *testing.T, habits repository.HabitRepository, checkIns repository.CheckInRepository) {
	ctx := context.Background()
	h := NewHabit("Run")
	mustCreate(t, habits, h)
	mustCheckIn(t, checkIns, h.ID, "2024-01-02")

	h.Name = "Run 5k"
	h.Category = "outdoors"
	h.Frequency = entity.FrequencyWeekly
	h.UpdatedAt = baseTime.Add(time.Hour)
	if err := habits.Update(ctx, h); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := habits.GetByID(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Run 5k" || got.Category != "outdoors" || got.Frequency != entity.FrequencyWeekly {
		t.Errorf("got %+v", got)
	}
	if !got.UpdatedAt.Equal(h.UpdatedAt) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, h.UpdatedAt)
	}
	assertDates(t, got.CheckIns, "2024-01-02")

	if err := habits.Update(ctx, NewHabit("ghost")); !apperrors.IsNotFound(err) {
		t.Errorf("Update(unknown) = %v, want not found", err)
	}
}

func testDeleteCascades(t *testing.T, habits repository.HabitRepository, checkIns repository.CheckInRepository) {
	ctx := context.Background()
	h := NewHabit("Stretch")
	other := NewHabit("Journal")
	mustCreate(t, habits, h)
	mustCreate(t, habits, other)
	mustCheckIn(t, checkIns, h.ID, "2024-01-02", "2024-01-03")
	mustCheckIn(t, checkIns, other.ID, "2024-01-02")

	if err := habits.Delete(ctx, h.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := habits.GetByID(ctx, h.ID); !apperrors.IsNotFound(err) {
		t.Errorf("GetByID after delete = %v, want not found", err)
	}
	if _, err := checkIns.ListByHabitID(ctx, h.ID); !apperrors.IsNotFound(err) {
		t.Errorf("ListByHabitID after delete = %v, want not found", err)
	}
	if err := habits.Delete(ctx, h.ID); !apperrors.IsNotFound(err) {
		t.Errorf("second Delete = %v, want not found", err)
	}

	remaining, err := checkIns.ListByHabitID(ctx, other.ID)
	if err != nil {
		t.Fatalf("ListByHabitID(other): %v", err)
	}
	assertDates(t, remaining, "2024-01-02")

	all, _ := habits.List(ctx, 0, 0)
	if len(all) != 1 || all[0].ID != other.ID {
		t.Errorf("List after delete = %v", all)
	}
}

func testCheckInOrdering(t *testing.T, habits repository.HabitRepository, checkIns repository.CheckInRepository) {
	ctx := context.Background()
	h := NewHabit("Meditate")
	mustCreate(t, habits, h)

	notes := "ten minutes"
	c := NewCheckIn(h.ID, "2024-01-05")
	c.Notes = &notes
	if err := checkIns.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	mustCheckIn(t, checkIns, h.ID, "2024-01-03", "2024-01-04", "2024-01-01")

	got, err := habits.GetByID(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	assertDates(t, got.CheckIns, "2024-01-01", "2024-01-03", "2024-01-04", "2024-01-05")

	last := got.CheckIns[3]
	if last.ID != c.ID || last.HabitID != h.ID {
		t.Errorf("check-in ids = %s/%s, want %s/%s", last.ID, last.HabitID, c.ID, h.ID)
	}
	if last.Notes == nil || *last.Notes != "ten minutes" {
		t.Errorf("notes = %v, want ten minutes", last.Notes)
	}
	if got.CheckIns[0].Notes != nil {
		t.Errorf("notes of first check-in = %v, want nil", *got.CheckIns[0].Notes)
	}

	listed, err := checkIns.ListByHabitID(ctx, h.ID)
	if err != nil {
		t.Fatalf("ListByHabitID: %v", err)
	}
	assertDates(t, listed, "2024-01-01", "2024-01-03", "2024-01-04", "2024-01-05")
}

func testDuplicateCheckIn(t *testing.T, habits repository.HabitRepository, checkIns repository.CheckInRepository) {
	ctx := context.Background()
	h := NewHabit("Floss")
	mustCreate(t, habits, h)
	mustCheckIn(t, checkIns, h.ID, "2024-01-02")

	err := checkIns.Create(ctx, NewCheckIn(h.ID, "2024-01-02"))
	if !apperrors.IsConflict(err) {
		t.Fatalf("duplicate Create = %v, want conflict", err)
	}

	got, err := checkIns.ListByHabitID(ctx, h.ID)
	if err != nil {
		t.Fatalf("ListByHabitID: %v", err)
	}
	assertDates(t, got, "2024-01-02")
}

func testCheckInUnknownHabit(t *testing.T, _ repository.HabitRepository, checkIns repository.CheckInRepository) {
	err := checkIns.Create(context.Background(), NewCheckIn(uuid.New(), "2024-01-02"))
	if !apperrors.IsNotFound(err) {
		t.Errorf("Create for unknown habit = %v, want not found", err)
	}
}

func testCheckInBeforeStartDate(t *testing.T, habits repository.HabitRepository, checkIns repository.CheckInRepository) {
	ctx := context.Background()
	h := NewHabit("Stretch")
	mustCreate(t, habits, h)

	err := checkIns.Create(ctx, NewCheckIn(h.ID, "2023-12-31"))
	if !apperrors.IsValidation(err) {
		t.Fatalf("Create before start date = %v, want validation", err)
	}

	// The start date itself is allowed.
	mustCheckIn(t, checkIns, h.ID, "2024-01-01")

	got, err := checkIns.ListByHabitID(ctx, h.ID)
	if err != nil {
		t.Fatalf("ListByHabitID: %v", err)
	}
	assertDates(t, got, "2024-01-01")
}

func testDeleteCheckIn(t *testing.T, habits repository.HabitRepository, checkIns repository.CheckInRepository) {
	ctx := context.Background()
	h := NewHabit("Walk")
	mustCreate(t, habits, h)
	mustCheckIn(t, checkIns, h.ID, "2024-01-02", "2024-01-03")

	if err := checkIns.Delete(ctx, h.ID, civil.MustParse("2024-01-02")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := checkIns.Delete(ctx, h.ID, civil.MustParse("2024-01-02")); !apperrors.IsNotFound(err) {
		t.Errorf("second Delete = %v, want not found", err)
	}
	if err := checkIns.Delete(ctx, uuid.New(), civil.MustParse("2024-01-03")); !apperrors.IsNotFound(err) {
		t.Errorf("Delete for unknown habit = %v, want not found", err)
	}

	got, _ := checkIns.ListByHabitID(ctx, h.ID)
	assertDates(t, got, "2024-01-03")

	// The date is free again.
	mustCheckIn(t, checkIns, h.ID, "2024-01-02")
}

func testListBetween(t *testing.T, habits repository.HabitRepository, checkIns repository.CheckInRepository) {
	ctx := context.Background()
	h := NewHabit("Cook")
	mustCreate(t, habits, h)
	mustCheckIn(t, checkIns, h.ID, "2024-01-31", "2024-02-01", "2024-02-29", "2024-03-01")

	got, err := checkIns.ListBetween(ctx, h.ID, civil.MustParse("2024-02-01"), civil.MustParse("2024-02-29"))
	if err != nil {
		t.Fatalf("ListBetween: %v", err)
	}
	assertDates(t, got, "2024-02-01", "2024-02-29")

	empty, err := checkIns.ListBetween(ctx, h.ID, civil.MustParse("2023-01-01"), civil.MustParse("2023-12-31"))
	if err != nil {
		t.Fatalf("ListBetween(empty): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ListBetween(empty) = %v", datesOf(empty))
	}

	if _, err := checkIns.ListBetween(ctx, uuid.New(), civil.MustParse("2024-01-01"), civil.MustParse("2024-12-31")); !apperrors.IsNotFound(err) {
		t.Errorf("ListBetween(unknown) = %v, want not found", err)
	}
}

func testPing(t *testing.T, habits repository.HabitRepository, _ repository.CheckInRepository) {
	if err := habits.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
