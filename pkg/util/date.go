package util

import (
	"strconv"
	"time"
)

const dayLayout = "2006-01-02"

// ParseDay accepts YYYY-MM-DD, RFC3339 and unix seconds. The result is truncated to a UTC calendar day.
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dayLayout, s); err == nil {
		return TruncateDay(t), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return TruncateDay(t), true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return TruncateDay(time.Unix(ts, 0)), true
	}
	return time.Time{}, false
}

// FormatDay renders t as YYYY-MM-DD.
func FormatDay(t time.Time) string { return t.UTC().Format(dayLayout) }

// TruncateDay drops the clock part of t and moves it to UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the calendar day n days after t.
func AddDays(t time.Time, n int) time.Time {
	return TruncateDay(t).AddDate(0, 0, n)
}

// DaysBetween counts whole days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}

// WeekdayIndex numbers days Monday=0 .. Sunday=6.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func IsWeekend(t time.Time) bool { return WeekdayIndex(t) >= 5 }

// IsHolidayWindow reports the June, November and December trading windows.
func IsHolidayWindow(t time.Time) bool {
	switch t.Month() {
	case time.June, time.November, time.December:
		return true
	}
	return false
}
