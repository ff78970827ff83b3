package calendar_test

import (
	"testing"
	"time"

	"github.com/meenmo/hwlib/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTargetHolidays(t *testing.T) {
	t.Parallel()

	holidays := []time.Time{
		date(2025, time.January, 1),
		date(2025, time.April, 18), // Good Friday
		date(2025, time.April, 21), // Easter Monday
		date(2025, time.May, 1),
		date(2025, time.December, 25),
		date(2025, time.December, 26),
		date(2024, time.March, 29),
	}
	for _, h := range holidays {
		if calendar.IsBusinessDay(calendar.TARGET, h) {
			t.Fatalf("%s should be a TARGET holiday", h.Format("2006-01-02"))
		}
		if !calendar.IsBusinessDay(calendar.WeekendsOnly, h) && h.Weekday() != time.Saturday && h.Weekday() != time.Sunday {
			t.Fatalf("%s should be a WeekendsOnly business day", h.Format("2006-01-02"))
		}
	}
}

func TestAdjust(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cal  calendar.CalendarID
		in   time.Time
		want time.Time
	}{
		{"saturdayRollsForward", calendar.WeekendsOnly, date(2025, time.March, 1), date(2025, time.March, 3)},
		{"monthEndRollsBack", calendar.WeekendsOnly, date(2025, time.May, 31), date(2025, time.May, 30)},
		{"easterMonday", calendar.TARGET, date(2025, time.April, 21), date(2025, time.April, 22)},
		{"null", calendar.NullCalendar, date(2025, time.March, 1), date(2025, time.March, 1)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := calendar.Adjust(tc.cal, tc.in); !got.Equal(tc.want) {
				t.Fatalf("Adjust mismatch: got %s want %s", got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	got := calendar.AddBusinessDays(calendar.TARGET, date(2025, time.April, 17), 2)
	if want := date(2025, time.April, 23); !got.Equal(want) {
		t.Fatalf("AddBusinessDays mismatch: got %s want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
	back := calendar.AddBusinessDays(calendar.WeekendsOnly, date(2025, time.March, 3), -1)
	if want := date(2025, time.February, 28); !back.Equal(want) {
		t.Fatalf("AddBusinessDays backwards mismatch: got %s", back.Format("2006-01-02"))
	}
}
