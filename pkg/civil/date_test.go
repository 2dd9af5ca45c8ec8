package civil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-01-05", want: "2024-01-05"},
		{in: " 2024-02-29 ", want: "2024-02-29"},
		{in: "2023-02-29", wantErr: true},
		{in: "2024/01/05", wantErr: true},
		{in: "2024-01-05T10:00:00Z", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %s, want error", tt.in, d)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.in, err)
			}
			if d.String() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, d, tt.want)
			}
		})
	}
}

func TestDaysSince(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2024-01-05", "2024-01-04", 1},
		{"2024-01-04", "2024-01-05", -1},
		{"2024-03-01", "2024-02-28", 2}, // leap year
		{"2025-01-01", "2024-12-25", 7},
		{"2024-03-31", "2024-03-30", 1}, // DST change in Europe
		{"2024-01-05", "2024-01-05", 0},
	}

	for _, tt := range tests {
		got := MustParse(tt.a).DaysSince(MustParse(tt.b))
		if got != tt.want {
			t.Errorf("%s.DaysSince(%s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTodayUsesLocation(t *testing.T) {
	// 23:30 UTC on Jan 5 is already Jan 6 in Tokyo and still Jan 5 in New York.
	now := time.Date(2024, 1, 5, 23, 30, 0, 0, time.UTC)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}

	if got := Today(now, tokyo).String(); got != "2024-01-06" {
		t.Errorf("Today in Tokyo = %s, want 2024-01-06", got)
	}
	if got := Today(now, newYork).String(); got != "2024-01-05" {
		t.Errorf("Today in New York = %s, want 2024-01-05", got)
	}
	if got := Today(now, nil).String(); got != "2024-01-05" {
		t.Errorf("Today in UTC = %s, want 2024-01-05", got)
	}
}

func TestAddDaysAndCompare(t *testing.T) {
	d := MustParse("2024-12-30")
	next := d.AddDays(3)

	if next.String() != "2025-01-02" {
		t.Fatalf("AddDays(3) = %s, want 2025-01-02", next)
	}
	if !d.Before(next) || !next.After(d) {
		t.Error("expected d before next")
	}
	if d.Compare(next) != -1 || next.Compare(d) != 1 || d.Compare(d) != 0 {
		t.Error("Compare returned unexpected ordering")
	}
	if !next.AddDays(-3).Equal(d) {
		t.Error("AddDays(-3) did not round-trip")
	}
}

func TestJSON(t *testing.T) {
	var v struct {
		Date Date `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2024-01-05"}`), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v.Date.String() != "2024-01-05" {
		t.Fatalf("decoded %s, want 2024-01-05", v.Date)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"date":"2024-01-05"}` {
		t.Errorf("Marshal = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"date":"05/01/2024"}`), &v); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(MustParse("2024-02-14"))
	if first.String() != "2024-02-01" || last.String() != "2024-02-29" {
		t.Errorf("MonthRange = %s..%s, want 2024-02-01..2024-02-29", first, last)
	}

	m, err := ParseMonth("2023-12")
	if err != nil {
		t.Fatalf("ParseMonth: %v", err)
	}
	_, last = MonthRange(m)
	if last.String() != "2023-12-31" {
		t.Errorf("last day of 2023-12 = %s", last)
	}

	if _, err := ParseMonth("2023-13"); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestZeroIsDistinctFromFirstDate(t *testing.T) {
	var zero Date
	if !zero.IsZero() || zero.String() != "" {
		t.Errorf("zero Date: IsZero=%v String=%q", zero.IsZero(), zero.String())
	}

	first := MustParse("0001-01-01")
	if first.IsZero() {
		t.Error("0001-01-01 reported as zero")
	}
	if first.String() != "0001-01-01" {
		t.Errorf("String = %q, want 0001-01-01", first.String())
	}
	if !first.Before(MustParse("2024-01-01")) {
		t.Error("0001-01-01 should be before 2024-01-01")
	}
}
