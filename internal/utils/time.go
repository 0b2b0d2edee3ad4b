package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/rosterfill/internal/constants"
)

// ParseDate parses a date string in the standard format (YYYY-MM-DD).
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t, nil
}

// ValidateDateFormat checks if the string matches the standard date format.
func ValidateDateFormat(dateStr string) bool {
	_, err := ParseDate(dateStr)
	return err == nil
}

// AddDays shifts a date string by n calendar days. Invalid input is
// returned unchanged.
func AddDays(dateStr string, n int) string {
	t, err := ParseDate(dateStr)
	if err != nil {
		return dateStr
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat)
}

// NextDay returns the calendar day after dateStr.
func NextDay(dateStr string) string {
	return AddDays(dateStr, 1)
}

// DaysBetween returns the number of calendar days from start to end.
func DaysBetween(start, end string) (int, error) {
	s, err := ParseDate(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return 0, err
	}
	return int(e.Sub(s).Hours() / 24), nil
}

// DateRange lists every date from start to end inclusive.
func DateRange(start, end string) ([]string, error) {
	days, err := DaysBetween(start, end)
	if err != nil {
		return nil, err
	}
	if days < 0 {
		return nil, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	dates := make([]string, 0, days+1)
	for i := 0; i <= days; i++ {
		dates = append(dates, AddDays(start, i))
	}
	return dates, nil
}

// FormatTimestamp renders t for audit columns.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}
