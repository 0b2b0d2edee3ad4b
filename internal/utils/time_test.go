package utils

import (
	"testing"
	"time"
)

func TestAddDays(t *testing.T) {
	tests := []struct {
		name string
		date string
		n    int
		want string
	}{
		{"next day", "2026-03-02", 1, "2026-03-03"},
		{"month rollover", "2026-01-31", 1, "2026-02-01"},
		{"leap day", "2028-02-28", 1, "2028-02-29"},
		{"year rollover", "2026-12-31", 1, "2027-01-01"},
		{"backwards", "2026-03-02", -7, "2026-02-23"},
		{"invalid input unchanged", "not-a-date", 1, "not-a-date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddDays(tt.date, tt.n); got != tt.want {
				t.Errorf("AddDays(%q, %d) = %q, want %q", tt.date, tt.n, got, tt.want)
			}
		})
	}
}

func TestDateRange(t *testing.T) {
	dates, err := DateRange("2026-02-27", "2026-03-02")
	if err != nil {
		t.Fatalf("DateRange() error = %v", err)
	}
	want := []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}
	if len(dates) != len(want) {
		t.Fatalf("DateRange() returned %d dates, want %d", len(dates), len(want))
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %q, want %q", i, dates[i], want[i])
		}
	}

	if _, err := DateRange("2026-03-02", "2026-03-01"); err == nil {
		t.Error("DateRange() accepted an inverted range")
	}
}

func TestDaysBetween(t *testing.T) {
	got, err := DaysBetween("2026-03-01", "2026-03-29")
	if err != nil {
		t.Fatalf("DaysBetween() error = %v", err)
	}
	if got != 28 {
		t.Errorf("DaysBetween() = %d, want 28", got)
	}
	if _, err := DaysBetween("bad", "2026-03-29"); err == nil {
		t.Error("DaysBetween() accepted an invalid date")
	}
}

func TestValidateDateFormat(t *testing.T) {
	if !ValidateDateFormat("2026-03-01") {
		t.Error("valid date rejected")
	}
	if ValidateDateFormat("03/01/2026") {
		t.Error("invalid date accepted")
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	if got := FormatTimestamp(ts); got != "2026-03-01T08:30:00Z" {
		t.Errorf("FormatTimestamp() = %q", got)
	}
}
