package calendar

import "time"

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// NullCalendar treats every day as a business day.
	NullCalendar CalendarID = "NULL"
	// WeekendsOnly rolls over Saturdays and Sundays only.
	WeekendsOnly CalendarID = "WEEKENDS"
	// TARGET is the euro settlement calendar.
	TARGET CalendarID = "TARGET"
)

// Parse maps a user string onto a CalendarID, defaulting to WeekendsOnly.
func Parse(s string) CalendarID {
	switch CalendarID(s) {
	case NullCalendar, TARGET:
		return CalendarID(s)
	default:
		return WeekendsOnly
	}
}

func isHoliday(cal CalendarID, t time.Time) bool {
	switch cal {
	case TARGET:
		return isTargetHoliday(t)
	default:
		return false
	}
}

// isTargetHoliday covers New Year, Good Friday, Easter Monday, Labour Day,
// Christmas and Boxing Day.
func isTargetHoliday(t time.Time) bool {
	y, m, d := t.Date()
	switch {
	case m == time.January && d == 1:
		return true
	case m == time.May && d == 1:
		return true
	case m == time.December && (d == 25 || d == 26):
		return true
	}
	easter := easterSunday(y)
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.Equal(easter.AddDate(0, 0, -2)) || day.Equal(easter.AddDate(0, 0, 1))
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if cal == NullCalendar {
		return true
	}
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
