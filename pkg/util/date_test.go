package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseDayLayouts(t *testing.T) {
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	cases := []string{
		"2024-10-10",
		"2024-10-10T10:10:10Z",
		strconv.FormatInt(time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix(), 10),
	}
	for _, s := range cases {
		got, ok := ParseDay(s)
		if !ok {
			t.Fatalf("expected ok for %q", s)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v want %v", s, got, want)
		}
	}
	if _, ok := ParseDay("yesterday"); ok {
		t.Fatalf("expected failure for free text")
	}
}

func TestWeekdayIndex(t *testing.T) {
	mon := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	if WeekdayIndex(mon) != 0 {
		t.Fatalf("monday index %d", WeekdayIndex(mon))
	}
	sun := AddDays(mon, 6)
	if WeekdayIndex(sun) != 6 || !IsWeekend(sun) {
		t.Fatalf("sunday index %d weekend=%v", WeekdayIndex(sun), IsWeekend(sun))
	}
	if IsWeekend(AddDays(mon, 4)) {
		t.Fatalf("friday is not a weekend day")
	}
}

func TestDaysBetweenAndHoliday(t *testing.T) {
	a := time.Date(2024, 2, 27, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 4 {
		t.Fatalf("days between %d", got)
	}
	if !IsHolidayWindow(time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("november should be a holiday window")
	}
	if IsHolidayWindow(time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("july is not a holiday window")
	}
}
