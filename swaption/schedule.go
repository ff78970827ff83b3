package swaption

import (
	"fmt"
	"time"

	"github.com/meenmo/hwlib/calendar"
	"github.com/meenmo/hwlib/solver"
	"github.com/meenmo/hwlib/utils"
)

// Frequency is a payment frequency in months.
type Frequency int

const (
	FreqAnnual    Frequency = 12
	FreqSemi      Frequency = 6
	FreqQuarterly Frequency = 3
)

// ScheduleDirection selects where the regular periods are anchored.
type ScheduleDirection int

const (
	// ScheduleForward rolls from the effective date, leaving a back stub.
	ScheduleForward ScheduleDirection = iota
	// ScheduleBackward rolls from maturity, leaving a front stub.
	ScheduleBackward
)

// Leg captures the date conventions of one swap leg.
type Leg struct {
	PayFrequency Frequency
	DayCount     string
	Calendar     calendar.CalendarID
	PayDelayDays int
	Direction    ScheduleDirection
}

// FixedLeg is annual 30/360 on TARGET.
var FixedLeg = Leg{PayFrequency: FreqAnnual, DayCount: utils.Thirty360, Calendar: calendar.TARGET}

// FloatLeg is semi-annual ACT/360 on TARGET.
var FloatLeg = Leg{PayFrequency: FreqSemi, DayCount: utils.ACT360, Calendar: calendar.TARGET}

func (l Leg) validate() error {
	if l.PayFrequency <= 0 {
		return fmt.Errorf("unsupported pay frequency %d: %w", l.PayFrequency, solver.ErrBadInput)
	}
	if err := utils.CheckDayCount(l.DayCount); err != nil {
		return fmt.Errorf("%v: %w", err, solver.ErrBadInput)
	}
	return nil
}

// SchedulePeriod is one accrual period with adjusted dates.
type SchedulePeriod struct {
	StartDate    time.Time
	EndDate      time.Time
	PayDate      time.Time
	YearFraction float64
}

// GenerateSchedule returns the Modified Following adjusted accrual periods
// between effective and maturity.
func GenerateSchedule(effective, maturity time.Time, leg Leg) ([]SchedulePeriod, error) {
	if !maturity.After(effective) {
		return nil, fmt.Errorf("GenerateSchedule: maturity %s not after effective %s: %w",
			maturity.Format("2006-01-02"), effective.Format("2006-01-02"), solver.ErrBadInput)
	}
	if err := leg.validate(); err != nil {
		return nil, fmt.Errorf("GenerateSchedule: %w", err)
	}
	var dates []time.Time
	if leg.Direction == ScheduleBackward {
		dates = backwardDates(effective, maturity, int(leg.PayFrequency))
	} else {
		dates = forwardDates(effective, maturity, int(leg.PayFrequency))
	}

	periods := make([]SchedulePeriod, 0, len(dates)-1)
	for i := 0; i < len(dates)-1; i++ {
		start := calendar.Adjust(leg.Calendar, dates[i])
		end := calendar.Adjust(leg.Calendar, dates[i+1])
		periods = append(periods, SchedulePeriod{
			StartDate:    start,
			EndDate:      end,
			PayDate:      calendar.AddBusinessDays(leg.Calendar, end, leg.PayDelayDays),
			YearFraction: utils.YearFraction(start, end, leg.DayCount),
		})
	}
	return periods, nil
}

// forwardDates rolls from effective on unadjusted dates. A remainder of a
// week or less is merged into the last period.
func forwardDates(effective, maturity time.Time, months int) []time.Time {
	dates := []time.Time{effective}
	for k := 1; ; k++ {
		next := utils.AddMonth(effective, k*months)
		if !next.Before(maturity) || utils.Days(next, maturity) <= 7 {
			break
		}
		dates = append(dates, next)
	}
	return append(dates, maturity)
}

// backwardDates rolls back from maturity. A front stub of a week or less is
// merged into the first period.
func backwardDates(effective, maturity time.Time, months int) []time.Time {
	dates := []time.Time{maturity}
	for k := 1; ; k++ {
		prev := utils.AddMonth(maturity, -k*months)
		if !prev.After(effective) || utils.Days(effective, prev) <= 7 {
			break
		}
		dates = append([]time.Time{prev}, dates...)
	}
	return append([]time.Time{effective}, dates...)
}
