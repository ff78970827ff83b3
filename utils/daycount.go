package utils

import (
	"fmt"
	"time"
)

// Supported day count conventions.
const (
	ACT360     = "ACT/360"
	ACT365F    = "ACT/365F"
	Thirty360  = "30/360"
	Thirty360E = "30E/360"
)

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/360, ACT/365F, 30E/360, 30/360. Unknown conventions fall back to ACT/365F.
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case ACT360:
		return Days(start, end) / 360.0
	case Thirty360E, Thirty360:
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := min(start.Day(), 30)
		d2 := min(end.Day(), 30)
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return Days(start, end) / 365.0
	}
}

// CheckDayCount rejects conventions YearFraction does not know.
func CheckDayCount(convention string) error {
	switch convention {
	case ACT360, ACT365F, Thirty360, Thirty360E:
		return nil
	}
	return fmt.Errorf("unsupported day count %q", convention)
}
