package entity

import (
	"testing"

	"habit-hero/pkg/civil"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    Frequency
		wantErr bool
	}{
		{in: "daily", want: FrequencyDaily},
		{in: " Weekly ", want: FrequencyWeekly},
		{in: "monthly", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFrequency(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFrequency(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFrequency(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestStepDays(t *testing.T) {
	if FrequencyDaily.StepDays() != 1 {
		t.Errorf("daily step = %d, want 1", FrequencyDaily.StepDays())
	}
	if FrequencyWeekly.StepDays() != 7 {
		t.Errorf("weekly step = %d, want 7", FrequencyWeekly.StepDays())
	}
}

func TestCloneDoesNotShareCheckIns(t *testing.T) {
	notes := "morning run"
	h := &Habit{
		Name: "Run",
		CheckIns: []CheckIn{
			{Date: civil.MustParse("2024-01-02"), Notes: &notes},
		},
	}

	c := h.Clone()
	c.CheckIns[0].Date = civil.MustParse("2024-02-02")
	*c.CheckIns[0].Notes = "changed"
	c.CheckIns = append(c.CheckIns, CheckIn{Date: civil.MustParse("2024-01-03")})

	if h.CheckIns[0].Date.String() != "2024-01-02" {
		t.Error("clone shares check-in dates with original")
	}
	if *h.CheckIns[0].Notes != "morning run" {
		t.Error("clone shares notes with original")
	}
	if len(h.CheckIns) != 1 {
		t.Error("append on clone changed original")
	}
}

func TestSortCheckIns(t *testing.T) {
	h := &Habit{CheckIns: []CheckIn{
		{Date: civil.MustParse("2024-01-05")},
		{Date: civil.MustParse("2024-01-03")},
		{Date: civil.MustParse("2024-01-04")},
	}}
	h.SortCheckIns()

	want := []string{"2024-01-03", "2024-01-04", "2024-01-05"}
	for i, d := range h.CheckInDates() {
		if d.String() != want[i] {
			t.Fatalf("dates[%d] = %s, want %s", i, d, want[i])
		}
	}
	if !h.HasCheckInOn(civil.MustParse("2024-01-04")) {
		t.Error("HasCheckInOn(2024-01-04) = false")
	}
	if h.HasCheckInOn(civil.MustParse("2024-01-06")) {
		t.Error("HasCheckInOn(2024-01-06) = true")
	}
}

func TestCategoryIsKnown(t *testing.T) {
	if !CategoryMentalHealth.IsKnown() {
		t.Error("mental_health should be known")
	}
	if Category("gardening").IsKnown() {
		t.Error("gardening should not be known")
	}
}
