package contextutils

import "time"

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalendarDaysBetween returns the number of whole calendar days between two
// timestamps, ignoring the time-of-day component. The result is positive when
// `to` falls on a later date than `from`.
func CalendarDaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// SameCalendarDay reports whether two timestamps fall on the same UTC calendar day.
func SameCalendarDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
