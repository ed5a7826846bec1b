package timeutils

import (
	"time"
)

// StartOfDay returns midnight of the day t falls on, in t's Location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of the day t falls on, in t's Location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// WholeDaysBetween counts the full calendar days from start to end. A trailing
// partial day is not counted, and DST shifts do not add or remove a day.
// The result is negative when end is before start.
func WholeDaysBetween(start, end time.Time) int {
	if end.Before(start) {
		return -WholeDaysBetween(end, start)
	}
	end = end.In(start.Location())

	a := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	days := int(b.Sub(a).Hours() / 24)

	if days > 0 && clock(end) < clock(start) {
		days--
	}
	return days
}

// HoursBetween returns the elapsed time from start to end in fractional hours.
func HoursBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

func clock(t time.Time) time.Duration {
	return t.Sub(StartOfDay(t))
}

// AddMonths moves t by n calendar months, clamping the day to the last day of
// the target month (31 Mar - 1 month = 29 Feb in a leap year).
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	day := t.Day()
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
